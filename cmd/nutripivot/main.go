package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/nutripivot/internal/core"
	_ "github.com/JonMunkholm/nutripivot/internal/core/tables" // Register all tables
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		slog.Error("run failed", "error", err, "code", core.MapError(err).Code)
		fmt.Fprintln(os.Stderr, userError(err))
		stop()
		os.Exit(1)
	}
}

// userError formats err for the terminal. Errors without a specific code
// also carry the technical message.
func userError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return fmt.Sprintf("%s\n  %v", core.FormatUserError(err), err)
}
