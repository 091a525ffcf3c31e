package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/contactmerge/commands"
	"sjsage522/contactmerge/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Cancel long passes on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	commands.ExecuteContext(logger.Default.WithContext(ctx))
}
