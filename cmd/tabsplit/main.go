// Command tabsplit splits a restaurant bill from the terminal: scan a
// receipt, assign items to people and share each person's part.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"

	"github.com/mmynk/tabsplit/internal/config"
	"github.com/mmynk/tabsplit/internal/scanning"
	"github.com/mmynk/tabsplit/internal/session"
	"github.com/mmynk/tabsplit/pkg/logging"
)

func main() {
	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		var usage *config.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Help)
		}
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, false)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Reads from stdin block, so an interrupt ends the process right away.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println()
		os.Exit(130)
	}()
	ctx := context.Background()

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize scanner", "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	s := session.New(scanner, scanner, cfg.Origin, os.Stdout)
	if cfg.Image != "" {
		if err := s.ScanFile(ctx, cfg.Image); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	} else {
		fmt.Println("Scan a receipt to start: scan <image>. Type help for all commands.")
	}

	if err := s.Run(ctx, os.Stdin); err != nil {
		slog.Error("Session ended", "error", err)
		os.Exit(1)
	}
}

func newScanner(ctx context.Context, cfg *config.ClientConfig) (scanning.Scanner, error) {
	if cfg.ServerURL != "" {
		slog.Debug("Using tabsplit server", "url", cfg.ServerURL)
		return scanning.NewRemote(http.DefaultClient, cfg.ServerURL), nil
	}
	switch cfg.Scanner.Kind {
	case config.ScannerOllama:
		return scanning.NewOllama(cfg.Scanner.OllamaURL, cfg.Scanner.OllamaModel, cfg.Scanner.Timeout), nil
	default:
		return scanning.NewGemini(ctx, cfg.Scanner.GeminiKey, cfg.Scanner.GeminiModel, cfg.Scanner.Timeout)
	}
}
