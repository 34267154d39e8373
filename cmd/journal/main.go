// Command journal is a terminal client for the travel journal API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/client"
	"github.com/ayush/travel-journal/backend/internal/logging"
)

var (
	serverURL string
	verbose   bool
	timeout   time.Duration

	logger *zap.Logger
	api    *client.API
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Terminal client for the travel journal",
	Long: `journal talks to the travel journal backend.

The server address comes from --server or JOURNAL_API_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, "console")
		if err != nil {
			return err
		}
		api = client.New(serverURL, nil)
		logger.Debug("using server", zap.String("url", serverURL))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func defaultServer() string {
	if v := os.Getenv("JOURNAL_API_URL"); v != "" {
		return v
	}
	return "http://localhost:5000"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "per-command timeout")

	rootCmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, deleteCmd, summarizeCmd,
		historyCmd, loginCmd, registerCmd)
}

// commandContext bounds a command by --timeout and cancels on Ctrl-C.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
