package daemon_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"tempo/internal/daemon"
	"tempo/internal/logging"
	"tempo/internal/testsupport"
)

const testCatalog = `
sources:
  genie:
    url: "https://example.invalid/detail?id={id}"
    items:
      - id: "100"
`

func TestDaemonStartWritesPidFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "0 0 1 1 *"
	testsupport.WriteCatalog(t, cfg, testCatalog)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	data, err := os.ReadFile(cfg.PidFilePath())
	if err != nil {
		t.Fatalf("pid file not written: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid != os.Getpid() {
		t.Fatalf("pid file content = %q, want %d", data, os.Getpid())
	}

	d.Stop()
	if _, err := os.Stat(cfg.PidFilePath()); !os.IsNotExist(err) {
		t.Fatal("pid file should be removed on stop")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "0 0 1 1 *"
	testsupport.WriteCatalog(t, cfg, testCatalog)

	first, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start first: %v", err)
	}
	defer first.Close()

	second, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	err = second.Start(context.Background())
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}

	// After the first instance stops, the lock must be free again.
	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	second.Close()
}

func TestDaemonStartFailsWithoutCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "0 0 1 1 *"

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		d.Close()
		t.Fatal("expected preflight failure without a catalog")
	}
}

func TestDaemonRejectsBadSchedule(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "not a cron expression"
	testsupport.WriteCatalog(t, cfg, testCatalog)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		d.Close()
		t.Fatal("expected error for invalid schedule")
	}

	// The lock must have been released by the failed start.
	state := daemon.ReadState(cfg)
	if state.Running {
		t.Fatal("failed start must not leave the lock held")
	}
}

func TestReadState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "0 0 1 1 *"
	testsupport.WriteCatalog(t, cfg, testCatalog)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	if state := daemon.ReadState(cfg); state.Running {
		t.Fatal("no daemon running, state must be idle")
	}

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	state := daemon.ReadState(cfg)
	if !state.Running {
		t.Fatal("daemon running, state must report it")
	}
	if state.PID != os.Getpid() {
		t.Fatalf("state pid = %d, want %d", state.PID, os.Getpid())
	}
}

func TestDaemonRunStopsOnContextCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Collect.Schedule = "0 0 1 1 *"
	testsupport.WriteCatalog(t, cfg, testCatalog)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Give the daemon a moment to start, then signal shutdown.
	deadline := time.After(5 * time.Second)
	for !daemon.ReadState(cfg).Running {
		select {
		case <-deadline:
			t.Fatal("daemon never started")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
