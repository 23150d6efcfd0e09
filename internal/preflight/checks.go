package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"tempo/internal/catalog"
	"tempo/internal/config"
	"tempo/internal/store"
)

// CheckDirectory verifies that the directory exists (creating it when
// missing) and is readable/writable.
func CheckDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "no path configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created)", path)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCatalog verifies that the target catalog loads and validates.
func CheckCatalog(path string) Result {
	const name = "Target catalog"

	if path == "" {
		return Result{Name: name, Detail: "no catalog path configured"}
	}
	loaded, err := catalog.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	items := 0
	for _, source := range loaded.Sources {
		items += len(source.Items)
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d sources, %d items)", path, len(loaded.Sources), items),
	}
}

// CheckStore verifies that the run-history database opens and passes its
// integrity check.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Run database"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st, err := store.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer st.Close()

	if err := st.CheckHealth(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (healthy)", st.Path())}
}
