package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dvanwesh/ramsita-game/internal/app"
)

func main() {
	// Optional; configuration falls back to real env vars and defaults.
	_ = godotenv.Load()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
