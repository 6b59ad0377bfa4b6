package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/testutil"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "snoop.db"), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id string, started time.Time, status history.Status, report string) *history.Record {
	rec := &history.Record{
		ID:         id,
		Network:    "192.168.1.0/24",
		Interface:  "eth0",
		Status:     status,
		Stdout:     "Starting scan\n",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	if report != "" {
		rec.Report = []byte(report)
	}
	return rec
}

func TestStore_SaveAndGet(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	started := time.UnixMilli(1_700_000_000_123)

	in := record("a1", started, history.StatusFailed, "")
	in.ExitCode = 3
	in.Stderr = "permission denied\n"
	in.LogTail = []string{"step 1", "step 2"}
	in.Error = "external process failed: exit status 3"
	req.NoError(s.Save(ctx, in))

	got, err := s.Get(ctx, "a1")
	req.NoError(err)
	req.Equal(in.ID, got.ID)
	req.Equal(history.StatusFailed, got.Status)
	req.Equal(3, got.ExitCode)
	req.Equal("permission denied\n", got.Stderr)
	req.Equal([]string{"step 1", "step 2"}, got.LogTail)
	req.Equal(in.Error, got.Error)
	req.True(got.StartedAt.Equal(started))
	req.False(got.HasReport())
}

func TestStore_GetUnknown(t *testing.T) {
	_, err := newStore(t).Get(context.Background(), "missing")
	if !errors.Is(err, history.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestStore_SaveRejectsEmptyID(t *testing.T) {
	err := newStore(t).Save(context.Background(), &history.Record{})
	require.Error(t, err)
}

func TestStore_ListNewestFirst(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	req.NoError(s.Save(ctx, record("old", base, history.StatusSucceeded, "r1")))
	req.NoError(s.Save(ctx, record("mid", base.Add(time.Minute), history.StatusTimedOut, "")))
	req.NoError(s.Save(ctx, record("new", base.Add(2*time.Minute), history.StatusSucceeded, "r2")))

	all, err := s.List(ctx, 0)
	req.NoError(err)
	req.Len(all, 3)
	req.Equal([]string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})
	req.True(all[0].HasReport)
	req.False(all[1].HasReport)
	req.Equal(history.StatusTimedOut, all[1].Status)

	two, err := s.List(ctx, 2)
	req.NoError(err)
	req.Len(two, 2)
}

func TestStore_ListEmpty(t *testing.T) {
	got, err := newStore(t).List(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestStore_PreviousWithReport(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	req.NoError(s.Save(ctx, record("first", base, history.StatusSucceeded, "host a\n")))
	req.NoError(s.Save(ctx, record("failed", base.Add(time.Minute), history.StatusFailed, "")))
	req.NoError(s.Save(ctx, record("second", base.Add(2*time.Minute), history.StatusSucceeded, "host a\nhost b\n")))

	prev, err := s.PreviousWithReport(ctx, "second")
	req.NoError(err)
	req.Equal("first", prev.ID)
	req.Equal("host a\n", string(prev.Report))

	_, err = s.PreviousWithReport(ctx, "first")
	req.ErrorIs(err, history.ErrRecordNotFound)

	_, err = s.PreviousWithReport(ctx, "nope")
	req.ErrorIs(err, history.ErrRecordNotFound)
}

func TestOpen_InMemory(t *testing.T) {
	req := require.New(t)
	s, err := history.Open(":memory:", nil)
	req.NoError(err)
	defer s.Close()

	req.NoError(s.Save(context.Background(), record("m", time.Now(), history.StatusError, "")))
	got, err := s.List(context.Background(), 5)
	req.NoError(err)
	req.Len(got, 1)
}

func TestDiff(t *testing.T) {
	req := require.New(t)
	base := &history.Record{ID: "b", Report: []byte("Nmap scan report for 10.0.0.1\nHost is up.\nNmap scan report for 10.0.0.2\n")}
	head := &history.Record{ID: "h", Report: []byte("Nmap scan report for 10.0.0.1\nHost is up.\nNmap scan report for 10.0.0.3\nHost is up.\n")}

	d := history.Diff(base, head)

	req.Equal("b", d.BaseID)
	req.Equal("h", d.HeadID)
	req.Equal(1, d.Deletions)
	req.Equal(2, d.Insertions)
	req.NotEmpty(d.Patch)

	var rebuilt strings.Builder
	for _, c := range d.Chunks {
		if c.Op != history.OpDelete {
			rebuilt.WriteString(c.Text)
		}
	}
	req.Equal(string(head.Report), rebuilt.String())
}

func TestDiff_Identical(t *testing.T) {
	r := []byte("same\n")
	d := history.Diff(&history.Record{ID: "a", Report: r}, &history.Record{ID: "b", Report: r})
	require.Zero(t, d.Insertions)
	require.Zero(t, d.Deletions)
	require.Empty(t, d.Patch)
}

func TestStore_EmptySnapshotIsKept(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	empty := record("empty", base, history.StatusSucceeded, "")
	empty.Report = []byte{}
	req.NoError(s.Save(ctx, empty))
	req.NoError(s.Save(ctx, record("none", base.Add(time.Second), history.StatusFailed, "")))
	req.NoError(s.Save(ctx, record("head", base.Add(2*time.Second), history.StatusSucceeded, "host up\n")))

	got, err := s.Get(ctx, "empty")
	req.NoError(err)
	req.True(got.HasReport())
	req.Empty(got.Report)

	none, err := s.Get(ctx, "none")
	req.NoError(err)
	req.False(none.HasReport())

	list, err := s.List(ctx, 0)
	req.NoError(err)
	byID := map[string]bool{}
	for _, sum := range list {
		byID[sum.ID] = sum.HasReport
	}
	req.Equal(map[string]bool{"empty": true, "none": false, "head": true}, byID)

	prev, err := s.PreviousWithReport(ctx, "head")
	req.NoError(err)
	req.Equal("empty", prev.ID)
	req.True(prev.HasReport())

	d := history.Diff(prev, mustGet(t, s, "head"))
	req.Equal(1, d.Insertions)
	req.Equal(0, d.Deletions)
}

func mustGet(t *testing.T, s *history.Store, id string) *history.Record {
	t.Helper()
	rec, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	return rec
}
