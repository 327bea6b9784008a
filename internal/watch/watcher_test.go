package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docgallery/internal/build"
	"git.home.luguber.info/inful/docgallery/internal/config"
)

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Source = filepath.Join(root, "docs")
	cfg.Output = filepath.Join(root, "site", "content")
	require.NoError(t, os.MkdirAll(cfg.Source, 0o750))
	return cfg
}

func TestTriggerRebuild_PendingRebuildsCoalesce(t *testing.T) {
	w := &Watcher{rebuildChan: make(chan struct{}, 1)}

	w.triggerRebuild()
	w.triggerRebuild()
	w.triggerRebuild()

	require.Len(t, w.rebuildChan, 1)
}

func TestRun_InitialBuildRunsBeforeAnyChange(t *testing.T) {
	cfg := watchConfig(t)

	var builds atomic.Int32
	run := func(ctx context.Context) (*build.Report, error) {
		builds.Add(1)
		return &build.Report{}, nil
	}

	w, err := New(cfg, run, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() >= 1 },
		5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_FileChange_TriggersRebuild(t *testing.T) {
	cfg := watchConfig(t)

	var builds atomic.Int32
	run := func(ctx context.Context) (*build.Report, error) {
		builds.Add(1)
		return &build.Report{}, nil
	}

	w, err := New(cfg, run, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for the initial build, then touch a file.
	require.Eventually(t, func() bool { return builds.Load() >= 1 },
		5*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source, "new.md"), []byte("x\n"), 0o600))

	require.Eventually(t, func() bool { return builds.Load() >= 2 },
		5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_MissingSourceTree_ReturnsError(t *testing.T) {
	cfg := watchConfig(t)
	cfg.Source = filepath.Join(cfg.Source, "does-not-exist")

	w, err := New(cfg, func(ctx context.Context) (*build.Report, error) {
		return &build.Report{}, nil
	}, nil)
	require.NoError(t, err)

	err = w.Run(context.Background())
	require.Error(t, err)
}
