package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"tempo/internal/store"
	"tempo/internal/testsupport"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func startRun(t *testing.T, st *store.Store, trigger string, startedAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	if err := st.StartRun(context.Background(), id, trigger, startedAt); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	return id
}

func TestRunLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	started := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	id := startRun(t, st, "manual", started)

	run, err := st.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run == nil {
		t.Fatal("run not found after StartRun")
	}
	if run.Finished() {
		t.Fatal("run must not be finished before FinishRun")
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", run.StartedAt, started)
	}

	counts := store.RunCounts{Sources: 1, Targets: 3, Succeeded: 2, Failed: 1, Records: 3}
	finished := started.Add(42 * time.Second)
	if err := st.FinishRun(ctx, id, finished, counts, errors.New("source genie: boom")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err = st.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun after finish: %v", err)
	}
	if !run.Finished() || !run.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at = %v, want %v", run.FinishedAt, finished)
	}
	if run.RunCounts != counts {
		t.Fatalf("counts = %+v, want %+v", run.RunCounts, counts)
	}
	if run.ErrorMessage != "source genie: boom" {
		t.Fatalf("error message = %q", run.ErrorMessage)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	st := openStore(t)
	err := st.FinishRun(context.Background(), "no-such-run", time.Now(), store.RunCounts{}, nil)
	if err == nil {
		t.Fatal("expected an error finishing an unknown run")
	}
}

func TestGetRunMissingReturnsNil(t *testing.T) {
	st := openStore(t)
	run, err := st.GetRun(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run != nil {
		t.Fatalf("run = %+v, want nil", run)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, startRun(t, st, "scheduled", base.Add(time.Duration(i)*time.Hour)))
	}

	runs, err := st.RecentRuns(ctx, 3)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if runs[i].ID != want {
			t.Fatalf("runs[%d] = %s, want %s", i, runs[i].ID, want)
		}
	}

	// A non-positive limit falls back to the default.
	runs, err = st.RecentRuns(ctx, 0)
	if err != nil {
		t.Fatalf("RecentRuns(0): %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("runs = %d, want all 5", len(runs))
	}
}

func TestTotalsAggregateHistory(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	okRun := startRun(t, st, "manual", base)
	if err := st.FinishRun(ctx, okRun, base.Add(time.Minute), store.RunCounts{Targets: 2, Succeeded: 2, Records: 2}, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	badRun := startRun(t, st, "scheduled", base.Add(time.Hour))
	if err := st.FinishRun(ctx, badRun, base.Add(time.Hour+time.Minute), store.RunCounts{Targets: 2, Succeeded: 1, Failed: 1, Records: 2}, errors.New("boom")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	totals, err := st.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Runs != 2 || totals.Records != 4 || totals.FailedTargets != 1 || totals.FailedRuns != 1 {
		t.Fatalf("totals = %+v", totals)
	}
	if !totals.LastStarted.Equal(base.Add(time.Hour)) {
		t.Fatalf("last started = %v, want %v", totals.LastStarted, base.Add(time.Hour))
	}
}

func TestPruneRunsKeepsNewest(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, startRun(t, st, "scheduled", base.Add(time.Duration(i)*time.Hour)))
	}

	removed, err := st.PruneRuns(ctx, 2)
	if err != nil {
		t.Fatalf("PruneRuns: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	runs, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[3] || runs[1].ID != ids[2] {
		t.Fatalf("surviving runs wrong: %+v", runs)
	}
}

func TestCheckHealth(t *testing.T) {
	st := openStore(t)
	if err := st.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
}

func TestOpenAtRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.db")

	st, err := store.OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := store.OpenAt(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestOpenAtReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.db")

	first, err := store.OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	id := startRun(t, first, "manual", time.Now().UTC())
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := store.OpenAt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	run, err := second.GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run == nil {
		t.Fatal("run lost across reopen")
	}
}
