package runtime

import (
	"context"
	"path/filepath"
	"testing"

	cfgpkg "github.com/rzbill/jobq/internal/config"
)

func openTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open(Options{DataDir: t.TempDir(), Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenAndHealth(t *testing.T) {
	rt := openTestRuntime(t)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.Pool() == nil || rt.Staging() == nil || rt.Store() == nil {
		t.Fatalf("runtime wiring incomplete")
	}
}

func TestDataDirLockedAgainstSecondInstance(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	defer rt.Close()
	if _, err := Open(Options{DataDir: dir, Config: cfgpkg.Default()}); err == nil {
		t.Fatalf("second open should fail on data-dir lock")
	}
}

func TestStagingDirDefaultsUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if rt.Staging().Dir() != filepath.Join(dir, "staging") {
		t.Fatalf("staging dir: %q", rt.Staging().Dir())
	}
}

func TestRejectsBadFsyncMode(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Storage.Fsync = "sometimes"
	if _, err := Open(Options{DataDir: t.TempDir(), Config: cfg}); err == nil {
		t.Fatalf("expected fsync parse error")
	}
}
