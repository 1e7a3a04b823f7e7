package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dvanwesh/ramsita-game/internal/store"
)

// runDriver is a line-oriented stand-in for an external consumer of the
// store. It validates create/join inputs before calling the store, as
// the store contract requires of its callers.
func runDriver(ctx context.Context, st *store.Store, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "commands: create <name> <rounds> | join <code> <name> | start | guess <playerId> | me | state | history | leave | quit")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "create":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: create <name> <rounds>")
				continue
			}
			name := strings.TrimSpace(fields[1])
			rounds, err := strconv.Atoi(fields[2])
			if name == "" || err != nil || rounds <= 0 {
				fmt.Fprintln(out, "usage: create <name> <rounds>")
				continue
			}
			if err := st.CreateGame(ctx, name, rounds); err != nil {
				fmt.Fprintf(out, "create failed: %v\n", err)
				continue
			}
			printSession(out, st)
		case "join":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: join <code> <name>")
				continue
			}
			code := strings.TrimSpace(fields[1])
			name := strings.TrimSpace(fields[2])
			if code == "" || name == "" {
				fmt.Fprintln(out, "usage: join <code> <name>")
				continue
			}
			if err := st.JoinGame(ctx, code, name); err != nil {
				fmt.Fprintf(out, "join failed: %v\n", err)
				continue
			}
			printSession(out, st)
		case "start":
			if err := st.StartGame(ctx); err != nil {
				fmt.Fprintf(out, "start failed: %v\n", err)
			}
		case "guess":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: guess <playerId>")
				continue
			}
			if err := st.Guess(ctx, fields[1]); err != nil {
				fmt.Fprintf(out, "guess failed: %v\n", err)
			}
		case "me":
			if err := st.LoadMe(ctx); err != nil {
				fmt.Fprintf(out, "refresh failed: %v\n", err)
				continue
			}
			printMe(out, st)
		case "state":
			printState(out, st)
		case "history":
			printHistory(out, st)
		case "leave":
			st.LeaveGame(ctx)
			fmt.Fprintln(out, "left game")
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}

func printSession(out io.Writer, st *store.Store) {
	record, ok := st.Session()
	if !ok {
		fmt.Fprintln(out, "no active session")
		return
	}
	fmt.Fprintf(out, "game %s (code %s)\n", record.GameID, record.GameCode)
}

func printMe(out io.Writer, st *store.Store) {
	me, ok := st.Me()
	if !ok {
		fmt.Fprintln(out, "identity not known yet")
		return
	}
	view, _ := st.Snapshot()
	chit := "-"
	if view.MyChit != "" {
		chit = string(view.MyChit)
	}
	fmt.Fprintf(out, "%s (%s) host=%t score=%d chit=%s\n", me.Name, me.ID, me.Host, me.TotalScore, chit)
}

func printState(out io.Writer, st *store.Store) {
	view, ok := st.Snapshot()
	if !ok {
		fmt.Fprintln(out, "no state yet")
		return
	}
	fmt.Fprintf(out, "%s round %d/%d\n", view.GameStatus, view.CurrentRoundNumber, view.TotalRounds)
	for _, player := range view.Players {
		marker := ""
		if player.Host {
			marker = " (host)"
		}
		fmt.Fprintf(out, "  %s%s: %d\n", player.Name, marker, player.TotalScore)
	}
}

func printHistory(out io.Writer, st *store.Store) {
	ledger := st.History()
	if len(ledger) == 0 {
		fmt.Fprintln(out, "no rounds recorded")
		return
	}
	for _, entry := range ledger {
		ids := make([]string, 0, len(entry.Totals))
		for id := range entry.Totals {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprintf(out, "round %d:", entry.RoundNumber)
		for _, id := range ids {
			fmt.Fprintf(out, " %s=%+d(%d)", id, entry.Deltas[id], entry.Totals[id])
		}
		fmt.Fprintln(out)
	}
}
