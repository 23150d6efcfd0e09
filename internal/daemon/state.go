package daemon

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"tempo/internal/config"
)

// State describes the daemon's on-disk runtime state as visible to other
// processes.
type State struct {
	Running  bool
	PID      int
	LockPath string
	PidPath  string
}

// ReadState probes the daemon lock and pid files without disturbing a
// running daemon. A held lock means a daemon is alive; the pid is
// best-effort information from the pid file.
func ReadState(cfg *config.Config) State {
	state := State{
		LockPath: cfg.LockFilePath(),
		PidPath:  cfg.PidFilePath(),
	}

	probe := flock.New(state.LockPath)
	ok, err := probe.TryLock()
	if err == nil && ok {
		// Nobody held the lock; release our probe immediately.
		_ = probe.Unlock()
	} else if err == nil {
		state.Running = true
	}

	if data, err := os.ReadFile(state.PidPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			state.PID = pid
		}
	}
	return state
}
