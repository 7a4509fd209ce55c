package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mediasweep/internal/classify"
	"mediasweep/internal/history"
	"mediasweep/internal/report"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if err := store.BeginRun(ctx, history.Run{ID: "aaaa-1111", Operation: "scan", Root: "/music", ArtifactPath: "/r/scan.jsonl"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	weird := classify.Verdict{Class: classify.Weird, Detail: "could not evaluate: missing bitrate"}
	outcomes := []report.Outcome{
		{Seq: 1, Rel: "a.mp3", Source: "/music/a.mp3", Status: report.StatusClassified, Verdict: &weird, At: time.Now()},
		{Seq: 2, Rel: "b.mp3", Source: "/music/b.mp3", Status: report.StatusFailed, ErrorKind: "validation", Message: "probe failed", At: time.Now()},
	}
	summary := report.Summary{Total: 2, Classified: 1, Failed: 1}
	if err := store.FinishRun(ctx, "aaaa-1111", history.RunCompleted, summary, outcomes, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.Get(ctx, "aaaa")
	if err != nil || run == nil {
		t.Fatalf("Get: run=%v err=%v", run, err)
	}
	if run.Status != history.RunCompleted || run.Total != 2 || run.Failed != 1 || run.ArtifactPath != "/r/scan.jsonl" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Fatal("expected finished timestamp")
	}

	stored, err := store.Outcomes(ctx, run.ID, "")
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(stored) != 2 || stored[0].Verdict == nil || stored[0].Verdict.Class != classify.Weird {
		t.Fatalf("unexpected outcomes: %+v", stored)
	}
	failed, err := store.Outcomes(ctx, run.ID, report.StatusFailed)
	if err != nil {
		t.Fatalf("Outcomes filtered: %v", err)
	}
	if len(failed) != 1 || failed[0].Rel != "b.mp3" || failed[0].ErrorKind != "validation" {
		t.Fatalf("unexpected filtered outcomes: %+v", failed)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		if err := store.BeginRun(ctx, history.Run{ID: id, Operation: "compress", Root: "/x", StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Status != history.RunRunning {
		t.Fatalf("expected running status, got %q", runs[0].Status)
	}
}

func TestRecentOrdersSubSecondStarts(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	starts := map[string]time.Duration{"tenth": 100 * time.Millisecond, "later": 120 * time.Millisecond}
	for id, offset := range starts {
		if err := store.BeginRun(ctx, history.Run{ID: id, Operation: "scan", Root: "/x", StartedAt: base.Add(offset)}); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "later" || runs[1].ID != "tenth" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if !runs[1].StartedAt.Equal(base.Add(100 * time.Millisecond)) {
		t.Fatalf("started_at round trip = %v", runs[1].StartedAt)
	}
}

func TestGetMissingAndAmbiguous(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	for _, id := range []string{"abc1", "abc2"} {
		if err := store.BeginRun(ctx, history.Run{ID: id, Operation: "scan", Root: "/x"}); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}
	if run, err := store.Get(ctx, "zzz"); err != nil || run != nil {
		t.Fatalf("expected nil run, got %v err=%v", run, err)
	}
	if _, err := store.Get(ctx, "abc"); err == nil {
		t.Fatal("expected ambiguity error")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), "missing", history.RunCompleted, report.Summary{}, nil, errors.New("x"))
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.BeginRun(context.Background(), history.Run{ID: "keep", Operation: "tags", Root: "/x"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if run, err := reopened.Get(context.Background(), "keep"); err != nil || run == nil {
		t.Fatalf("expected persisted run, got %v err=%v", run, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
