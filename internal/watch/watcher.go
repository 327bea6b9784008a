// Package watch rebuilds the site whenever the docs tree changes. It combines
// a filesystem watcher with an optional periodic schedule, serializes builds,
// and can publish a build event after each run.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docgallery/internal/build"
	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
)

// debounceTime coalesces bursts of filesystem events (editor save, git
// checkout) into a single rebuild.
const debounceTime = 500 * time.Millisecond

// RunFunc executes one full build.
type RunFunc func(ctx context.Context) (*build.Report, error)

// Watcher triggers builds on docs-tree changes. Builds are serialized; events
// arriving during a build fold into one follow-up rebuild.
type Watcher struct {
	cfg       *config.Config
	run       RunFunc
	publisher *Publisher

	watcher     *fsnotify.Watcher
	scheduler   gocron.Scheduler
	rebuildChan chan struct{}
	buildMu     sync.Mutex
}

// New creates a Watcher over cfg.Source. The publisher may be nil.
func New(cfg *config.Config, run RunFunc, publisher *Publisher) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher").Build()
	}

	w := &Watcher{
		cfg:         cfg,
		run:         run,
		publisher:   publisher,
		watcher:     fw,
		rebuildChan: make(chan struct{}, 1),
	}

	if interval, ok := cfg.IntervalDuration(); ok {
		s, err := gocron.NewScheduler()
		if err != nil {
			fw.Close()
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
		}
		if _, err := s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(w.triggerRebuild),
			gocron.WithName("periodic-rebuild"),
		); err != nil {
			fw.Close()
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to schedule periodic rebuild").Build()
		}
		w.scheduler = s
	}

	return w, nil
}

// Run builds once, then watches until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.cfg.Source); err != nil {
		return err
	}

	if w.scheduler != nil {
		w.scheduler.Start()
		defer func() {
			if err := w.scheduler.Shutdown(); err != nil {
				slog.Error("scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	slog.Info("watching docs tree", logfields.Path(w.cfg.Source))

	go w.watchLoop(ctx)

	// Initial build so the output is current before the first change.
	w.executeBuild(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.rebuildChan:
			w.executeBuild(ctx)
		}
	}
}

// addTree registers the source directory and all its subdirectories; fsnotify
// watches are not recursive.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch docs tree").
			WithContext("path", root).
			Build()
	}
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			// New directories must be added to the watch set before their
			// contents produce events.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						slog.Warn("failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceTime, w.triggerRebuild)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) triggerRebuild() {
	select {
	case w.rebuildChan <- struct{}{}:
	default: // a rebuild is already pending
	}
}

func (w *Watcher) executeBuild(ctx context.Context) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	report, err := w.run(ctx)
	if err != nil {
		slog.Error("rebuild failed", logfields.Error(err))
	}
	if w.publisher != nil && report != nil {
		if perr := w.publisher.PublishReport(report, err == nil); perr != nil {
			slog.Warn("failed to publish build event", logfields.Error(perr))
		}
	}
}
