package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

// ListInterfaces runs the link-listing command and returns usable interface
// names in the order the command printed them.
func (g *Gateway) ListInterfaces(ctx context.Context) ([]string, error) {
	cmd := model.Command{Name: g.cfg.LinkCommand, Args: g.cfg.LinkArgs}
	res, err := g.runner.Run(ctx, cmd)
	if err != nil {
		g.logger.Warn("listing interfaces", logging.F("command", cmd.String()), logging.F("error", err.Error()))
		if errors.Is(err, model.ErrCommandNotFound) {
			return nil, fmt.Errorf("%w: %s is not installed: %v", ErrExternalTool, g.cfg.LinkCommand, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		g.logger.Warn("listing interfaces",
			logging.F("command", cmd.String()),
			logging.F("exit_code", res.ExitCode),
			logging.F("stderr", stderr))
		return nil, fmt.Errorf("%w: %s exited with status %d: %s", ErrExternalTool, cmd.String(), res.ExitCode, stderr)
	}

	names := ParseLinkList(res.Stdout, g.cfg.ExcludedPrefixes)
	g.logger.Debug("listed interfaces", logging.F("count", len(names)))
	return names, nil
}

// ParseLinkList extracts interface names from `ip link show` output.
//
// Only link header lines ("2: eth0@if7: <BROADCAST,UP> ...") are considered;
// indented attribute lines are skipped. A trailing "@peer" is stripped.
// Loopback links and names starting with any excluded prefix are dropped.
// The result is never nil.
func ParseLinkList(output string, excludedPrefixes []string) []string {
	names := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		index, rest, ok := strings.Cut(line, ":")
		if !ok || !isDigits(strings.TrimSpace(index)) {
			continue
		}
		name, flags, _ := strings.Cut(rest, ":")
		name = strings.TrimSpace(name)
		if at := strings.IndexByte(name, '@'); at >= 0 {
			name = name[:at]
		}
		if name == "" || name == "lo" || isLoopback(flags) {
			continue
		}
		if lo.SomeBy(excludedPrefixes, func(p string) bool { return p != "" && strings.HasPrefix(name, p) }) {
			continue
		}
		names = append(names, name)
	}
	return lo.Uniq(names)
}

// isLoopback looks for LOOPBACK in the "<...>" flag list.
func isLoopback(flags string) bool {
	flags = strings.TrimSpace(flags)
	if !strings.HasPrefix(flags, "<") {
		return false
	}
	end := strings.IndexByte(flags, '>')
	if end < 0 {
		end = len(flags)
	}
	return lo.SomeBy(strings.Split(flags[1:end], ","), func(f string) bool {
		return strings.HasPrefix(strings.TrimSpace(f), "LOOPBACK")
	})
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}
