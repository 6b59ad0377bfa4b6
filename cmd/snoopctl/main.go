// Command snoopctl drives a running snoop server from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/natadecua/SNOOP/internal/cli"
	"github.com/natadecua/SNOOP/internal/client"
	"github.com/natadecua/SNOOP/internal/logging"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snoopctl: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, cli.Usage)
		return 2, err
	}

	level := slog.LevelWarn
	if os.Getenv("SNOOP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := logging.NewLogger(os.Stderr, level, "snoopctl")

	c, err := client.New(args.Server, logger, nil)
	if err != nil {
		return 2, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, args, c, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2, err
		}
		return 1, err
	}
	return 0, nil
}
