package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/al007ex/moomoo-clone/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{}); err != nil {
		log.Fatalf("%v", err)
	}
}
