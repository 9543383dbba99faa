// Command opdps calculates and compares operator DPS.
//
// Usage:
//
//	opdps serve
//	opdps migrate
//	opdps import -in operators.csv
//	opdps export -out operators.xlsx [-class sniper]
//	opdps compare -in operators.json [-scenario scenario.yaml] [-sort burst_dps] [-out report.xlsx] [-chart ranking.png]
//	opdps template -out operators.xlsx
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/game/combat"
)

const (
	DefaultConfigPath = "config/opdps.yaml"

	envConfig = "OPDPS_CONFIG"
	envDSN    = "OPDPS_DSN"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg config.App, args []string) error
}

var commands = []command{
	{name: "serve", usage: "run the HTTP API", run: runServe},
	{name: "migrate", usage: "apply database migrations", run: runMigrate},
	{name: "import", usage: "import operators from a CSV, JSON or XLSX file", run: runImport},
	{name: "export", usage: "export stored operators to a file", run: runExport},
	{name: "compare", usage: "compare operators from a file without a database", run: runCompare},
	{name: "template", usage: "write an import template", run: runTemplate},
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("no command given")
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	return cmd.run(ctx, cfg, args[1:])
}

// loadConfig reads .env (if present), then the YAML config named by
// OPDPS_CONFIG, then applies the OPDPS_DSN override. The configured default
// scenario must pass the same checks as a request scenario.
func loadConfig() (config.App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.App{}, fmt.Errorf("loading .env: %w", err)
	}

	path := DefaultConfigPath
	if p := os.Getenv(envConfig); p != "" {
		path = p
	}
	cfg, err := config.LoadApp(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if dsn := os.Getenv(envDSN); dsn != "" {
		cfg.Database.DSNOverride = dsn
	}
	if err := combat.ValidateScenario(cfg.Rules, cfg.Scenario); err != nil {
		return cfg, fmt.Errorf("config default scenario: %w", err)
	}
	return cfg, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: opdps <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
