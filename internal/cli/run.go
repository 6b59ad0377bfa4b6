package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/natadecua/SNOOP/internal/client"
	"github.com/natadecua/SNOOP/internal/history"
)

// Run executes a parsed snoopctl command against c, writing to out.
func Run(ctx context.Context, a *CLIArgs, c *client.Client, out io.Writer) error {
	p := printer{out: out, colour: a.Color}
	switch a.Command {
	case CmdInterfaces:
		names, err := c.Interfaces(ctx)
		if err != nil {
			return err
		}
		t := p.table("Interface")
		for _, n := range names {
			t.Append([]string{n})
		}
		t.Render()
	case CmdStatus:
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if !st.Running {
			fmt.Fprintln(out, p.paint(color.FgCyan, "idle"))
			return nil
		}
		started := ""
		if st.StartedAt != nil {
			started = st.StartedAt.Format(time.RFC3339)
		}
		t := p.table("State", "Scan", "Network", "Interface", "Started")
		t.Append([]string{p.paint(color.FgYellow, "running"), st.ScanID, st.Network, st.Interface, started})
		t.Render()
	case CmdScan:
		reply, err := c.Scan(ctx, a.Network, a.Interface)
		if reply != nil && reply.ID != "" {
			fmt.Fprintf(out, "scan %s\n", reply.ID)
		}
		if err != nil {
			if reply != nil && reply.Message != "" {
				fmt.Fprintln(out, p.paint(color.FgRed, reply.Message))
			}
			return fmt.Errorf("scan failed: %w", err)
		}
		fmt.Fprintln(out, p.paint(color.FgGreen, reply.Message))
	case CmdReport:
		return p.report(ctx, a, c)
	case CmdHistory:
		scans, err := c.ListScans(ctx, a.Limit)
		if err != nil {
			return err
		}
		t := p.table("ID", "Status", "Network", "Interface", "Exit", "Started", "Duration", "Report")
		for _, s := range scans {
			t.Append([]string{
				s.ID,
				p.status(s.Status),
				s.Network,
				s.Interface,
				fmt.Sprint(s.ExitCode),
				s.StartedAt.Local().Format("2006-01-02 15:04:05"),
				s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String(),
				yesNo(s.HasReport),
			})
		}
		t.Render()
	case CmdShow:
		rec, err := c.GetScan(ctx, a.ScanID)
		if err != nil {
			return err
		}
		t := p.table("Field", "Value")
		t.AppendBulk([][]string{
			{"ID", rec.ID},
			{"Status", p.status(rec.Status)},
			{"Network", rec.Network},
			{"Interface", rec.Interface},
			{"Exit code", fmt.Sprint(rec.ExitCode)},
			{"Timed out", yesNo(rec.TimedOut)},
			{"Started", rec.StartedAt.Local().Format(time.RFC3339)},
			{"Finished", rec.FinishedAt.Local().Format(time.RFC3339)},
			{"Report", yesNo(rec.HasReport)},
		})
		if rec.Error != "" {
			t.Append([]string{"Error", rec.Error})
		}
		t.Render()
		section(out, "stdout", rec.Stdout)
		section(out, "stderr", rec.Stderr)
		section(out, "log tail", strings.Join(rec.LogTail, "\n"))
	case CmdDiff:
		d, err := c.Diff(ctx, a.ScanID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s: %s %s\n", d.BaseID, d.HeadID,
			p.paint(color.FgGreen, fmt.Sprintf("+%d", d.Insertions)),
			p.paint(color.FgRed, fmt.Sprintf("-%d", d.Deletions)))
		for _, ch := range d.Chunks {
			prefix, fg := "  ", color.FgDefault
			switch ch.Op {
			case history.OpInsert:
				prefix, fg = "+ ", color.FgGreen
			case history.OpDelete:
				prefix, fg = "- ", color.FgRed
			default:
				continue
			}
			for _, line := range strings.Split(strings.TrimSuffix(ch.Text, "\n"), "\n") {
				fmt.Fprintln(out, p.paint(fg, prefix+line))
			}
		}
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, a.Command)
	}
	return nil
}

type printer struct {
	out    io.Writer
	colour bool
}

func (p printer) table(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(p.out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("\t")
	return t
}

func (p printer) paint(fg color.Color, s string) string {
	if !p.colour {
		return s
	}
	return color.New(fg).Render(s)
}

func (p printer) status(s history.Status) string {
	switch s {
	case history.StatusSucceeded:
		return p.paint(color.FgGreen, string(s))
	case history.StatusFailed, history.StatusError:
		return p.paint(color.FgRed, string(s))
	case history.StatusTimedOut:
		return p.paint(color.FgYellow, string(s))
	}
	return string(s)
}

func (p printer) report(ctx context.Context, a *CLIArgs, c *client.Client) error {
	dst := p.out
	if a.Output != "-" {
		f, err := os.Create(a.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", a.Output, err)
		}
		defer f.Close()
		dst = f
	}

	var (
		n   int64
		err error
	)
	if a.ScanID != "" {
		n, err = c.DownloadScanReport(ctx, a.ScanID, dst)
	} else {
		n, err = c.DownloadReport(ctx, dst)
	}
	if err != nil {
		if f, ok := dst.(*os.File); ok && dst != p.out {
			f.Close()
			os.Remove(a.Output)
		}
		return err
	}
	if a.Output != "-" {
		fmt.Fprintf(p.out, "wrote %d bytes to %s\n", n, a.Output)
	}
	return nil
}

func section(w io.Writer, title, body string) {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return
	}
	fmt.Fprintf(w, "\n--- %s ---\n%s\n", title, body)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
