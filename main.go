package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/fintrack/internal/app"
)

// @title           FinTrack API
// @version         1.0
// @description     Personal finance tracking: accounts verified by email passcode, a transaction ledger and spending analytics.
// @contact.name    FinTrack Support
// @contact.email   support@fintrack.local
// @license.name    MIT
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New()
	if err != nil {
		slog.Error("failed to start fintrack", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("fintrack exited", "error", err)
		os.Exit(1)
	}
}
