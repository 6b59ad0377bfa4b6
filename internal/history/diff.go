package history

import (
	"strings"

	"github.com/samber/lo"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two report snapshots line by line.
func Diff(base, head *Record) *ReportDiff {
	dmp := diffmatchpatch.New()
	a, b := string(base.Report), string(head.Report)

	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	out := &ReportDiff{
		BaseID: base.ID,
		HeadID: head.ID,
		Patch:  dmp.PatchToText(dmp.PatchMake(a, diffs)),
	}
	out.Chunks = lo.Map(diffs, func(d diffmatchpatch.Diff, _ int) Chunk {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.Insertions += countLines(d.Text)
			return Chunk{Op: OpInsert, Text: d.Text}
		case diffmatchpatch.DiffDelete:
			out.Deletions += countLines(d.Text)
			return Chunk{Op: OpDelete, Text: d.Text}
		default:
			return Chunk{Op: OpEqual, Text: d.Text}
		}
	})
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
