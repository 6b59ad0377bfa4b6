package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Commands understood by snoopctl.
const (
	CmdInterfaces = "interfaces"
	CmdStatus     = "status"
	CmdScan       = "scan"
	CmdReport     = "report"
	CmdHistory    = "history"
	CmdShow       = "show"
	CmdDiff       = "diff"
)

// DefaultServer is used when neither -server nor SNOOP_SERVER is set.
const DefaultServer = "http://localhost:5000"

// ErrUsage marks argument errors; callers print usage and exit 2.
var ErrUsage = errors.New("usage error")

// CLIArgs are the parsed arguments of one snoopctl invocation.
type CLIArgs struct {
	// Server is the base URL of the snoop server.
	Server string

	// Color enables ANSI colors in table output.
	Color bool

	Command string

	// scan
	Network   string
	Interface string

	// report: Output is the destination file, "-" for stdout. ScanID picks
	// a history snapshot instead of the current report.
	Output string

	// history
	Limit int

	// show, diff (and report -scan)
	ScanID string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args;
// it reads SNOOP_SERVER only as the -server default.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("snoopctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defServer := os.Getenv("SNOOP_SERVER")
	if defServer == "" {
		defServer = DefaultServer
	}
	var (
		server = fs.String("server", defServer, "snoop server base URL")
		colour = fs.Bool("color", false, "colorize output")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: missing command", ErrUsage)
	}
	out := &CLIArgs{
		Server:  *server,
		Color:   *colour,
		Command: rest[0],
		RawArgs: args,
	}

	sub := flag.NewFlagSet("snoopctl "+out.Command, flag.ContinueOnError)
	sub.SetOutput(io.Discard)
	switch out.Command {
	case CmdInterfaces, CmdStatus:
	case CmdScan:
		sub.StringVar(&out.Network, "network", "", "network range to scan (required)")
		sub.StringVar(&out.Interface, "interface", "", "interface to scan on (required)")
	case CmdReport:
		sub.StringVar(&out.Output, "o", "report.txt", `output file, "-" for stdout`)
		sub.StringVar(&out.ScanID, "scan", "", "download the snapshot of this scan instead")
	case CmdHistory:
		sub.IntVar(&out.Limit, "limit", 20, "number of scans to show")
	case CmdShow, CmdDiff:
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrUsage, out.Command)
	}
	if err := sub.Parse(rest[1:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch out.Command {
	case CmdScan:
		if strings.TrimSpace(out.Network) == "" || strings.TrimSpace(out.Interface) == "" {
			return nil, fmt.Errorf("%w: scan needs -network and -interface", ErrUsage)
		}
	case CmdHistory:
		if out.Limit < 0 {
			return nil, fmt.Errorf("%w: -limit must not be negative", ErrUsage)
		}
	case CmdShow, CmdDiff:
		if sub.NArg() != 1 {
			return nil, fmt.Errorf("%w: %s needs exactly one scan id", ErrUsage, out.Command)
		}
		out.ScanID = sub.Arg(0)
	}
	if sub.NArg() > 0 && out.Command != CmdShow && out.Command != CmdDiff {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, sub.Args())
	}
	return out, nil
}

// ServeArgs are the flags of the snoop server binary.
type ServeArgs struct {
	// EnvFile is loaded before the environment is read; missing is fine.
	EnvFile string

	// ListenAddr overrides SNOOP_LISTEN_ADDR when set.
	ListenAddr string
}

// ParseServeArgs parses the snoop server flags.
func ParseServeArgs(args []string) (*ServeArgs, error) {
	fs := flag.NewFlagSet("snoop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var out ServeArgs
	fs.StringVar(&out.EnvFile, "env", ".env", "dotenv file to load")
	fs.StringVar(&out.ListenAddr, "listen", "", "listen address, overrides SNOOP_LISTEN_ADDR")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	return &out, nil
}

// Usage is the snoopctl help text.
const Usage = `usage: snoopctl [-server URL] [-color] <command> [flags]

commands:
  interfaces                         list scannable interfaces
  status                             show the scan in flight
  scan -network N -interface I       run a scan and wait for it
  report [-o FILE] [-scan ID]        download the report
  history [-limit N]                 list recent scans
  show ID                            show one scan with its output
  diff ID                            diff a scan's report with the previous one
`
