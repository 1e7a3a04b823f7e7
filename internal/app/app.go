package app

import (
	"context"
	"fmt"
	"log"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dvanwesh/ramsita-game/internal/api"
	"github.com/dvanwesh/ramsita-game/internal/session"
	"github.com/dvanwesh/ramsita-game/internal/store"
	"github.com/dvanwesh/ramsita-game/internal/telemetry"
	"github.com/dvanwesh/ramsita-game/internal/ws"
	"github.com/dvanwesh/ramsita-game/logging"
	loggingSinks "github.com/dvanwesh/ramsita-game/logging/sinks"
)

// broadcastAdapter narrows the concrete subscriber to the store's
// Broadcast dependency.
type broadcastAdapter struct {
	subscriber *ws.Subscriber
}

func (b broadcastAdapter) Attach(gameID string) store.Subscription {
	return b.subscriber.Attach(gameID)
}

// Run wires the client together and drives it from stdin until EOF or
// an explicit quit.
func Run(ctx context.Context) error {
	cfg, err := ParseConfig()
	if err != nil {
		return err
	}

	logger := telemetry.WrapLogger(log.Default())

	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks
	logCfg.Fields = map[string]any{"clientId": uuid.NewString()}

	var namedSinks []logging.NamedSink
	if logCfg.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stderr, logCfg.Console),
		})
	}
	var jsonFile *os.File
	if logCfg.HasSink("json") {
		jsonFile, err = os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open json log file: %w", err)
		}
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(jsonFile, logCfg.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("construct cookie jar: %w", err)
	}

	sessionStore, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer sessionStore.Close()

	client := api.NewClient(cfg.APIBaseURL, jar)
	subscriber := ws.NewSubscriber(cfg.WSBaseURL, jar, cfg.ReconnectDelay, router, logger)
	st := store.New(client, broadcastAdapter{subscriber: subscriber}, sessionStore, router, logger)

	if err := st.RestoreFromStorage(ctx); err != nil {
		// Server unreachable; the record survives for a later retry.
		logger.Printf("session restore failed: %v", err)
	}

	return runDriver(ctx, st, os.Stdin, os.Stdout)
}
