// Command snoop serves the scan web front end.
//
// Configuration comes from SNOOP_* environment variables, optionally seeded
// from a .env file (see -env).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natadecua/SNOOP/internal/app"
	"github.com/natadecua/SNOOP/internal/cli"
	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/server"
)

const (
	exitOK = iota
	exitConfig
	exitStartup
	exitRuntime
	exitUsage
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snoop: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	args, err := cli.ParseServeArgs(os.Args[1:])
	if err != nil {
		return exitUsage, err
	}

	cfg, err := app.LoadConfig(args.EnvFile)
	if err != nil {
		return exitConfig, err
	}
	if args.ListenAddr != "" {
		cfg.ListenAddr = args.ListenAddr
	}

	logger := logging.NewLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel), "snoop")

	svc, err := app.NewServices(cfg, logger)
	if err != nil {
		return exitStartup, err
	}
	defer svc.Close()

	srv, err := server.NewServer(server.Config{Orchestrator: svc.Orchestrator, Logger: logger})
	if err != nil {
		return exitStartup, err
	}

	application := app.NewApplication(cfg, logger, srv)
	application.Scans = svc.Orchestrator
	if err := application.Start(); err != nil {
		return exitStartup, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Wait() }()

	select {
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
	case err := <-errCh:
		if err != nil {
			return exitRuntime, fmt.Errorf("http server: %w", err)
		}
		return exitOK, nil
	}

	// A scan in flight may run to its own timeout; past that it is terminated.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ScanTimeout+cfg.KillGrace+5*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return exitRuntime, err
	}
	return exitOK, nil
}
