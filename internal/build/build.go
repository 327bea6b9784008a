// Package build coordinates the gallery pipeline: discover documents, collect
// examples, publish the in-place content, then generate the gallery from the
// sealed registry.
//
// The two phases are a hard protocol, not a convention: the registry refuses
// reads before it is sealed and refuses registration after, so generation can
// never observe a partially collected example set. Any error aborts the whole
// build; there is no partial-publish mode.
package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/docmodel"
	"git.home.luguber.info/inful/docgallery/internal/gallery"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/manifest"
	"git.home.luguber.info/inful/docgallery/internal/metrics"
	"git.home.luguber.info/inful/docgallery/internal/registry"
)

// state is the per-build mutable state threaded through the stages. A fresh
// state (and a fresh registry) is constructed for every build invocation so
// nothing leaks across watch-mode rebuilds.
type state struct {
	cfg      *config.Config
	registry *registry.Registry
	manifest *manifest.Store
	report   *Report

	docFiles   []string
	assetFiles []string
	docs       map[string]*docmodel.Document
	stripped   map[string][]byte
	artifacts  []gallery.Artifact
}

// Builder runs complete builds for one configuration.
type Builder struct {
	cfg      *config.Config
	manifest *manifest.Store
	recorder metrics.Recorder
}

// NewBuilder creates a Builder. The manifest store may be nil (e.g. tests or
// one-shot builds without a writable state directory).
func NewBuilder(cfg *config.Config, store *manifest.Store) *Builder {
	return &Builder{cfg: cfg, manifest: store, recorder: metrics.NoopRecorder{}}
}

// WithRecorder swaps in a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// Run executes one full build and returns its report.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	commit := sourceCommit(b.cfg.Source)

	st := &state{
		cfg:      b.cfg,
		registry: registry.New(),
		manifest: b.manifest,
		report:   newReport(buildID, commit, b.cfg.Gallery.Enabled),
		docs:     make(map[string]*docmodel.Document),
		stripped: make(map[string][]byte),
	}

	b.recorder.BuildStarted()
	slog.Info("build started", logfields.BuildID(buildID), logfields.Commit(commit))

	err := runStages(ctx, st, []stageDef{
		{name: "discover", fn: stageDiscover},
		{name: "collect", fn: stageCollect},
		{name: "write-content", fn: stageWriteContent},
		{name: "generate-gallery", fn: stageGenerate},
		{name: "record-manifest", fn: stageRecordManifest},
	})

	st.report.Duration = time.Since(st.report.StartedAt)
	b.recorder.BuildCompleted(st.report.Duration, err == nil)
	b.recorder.ExamplesCollected(st.report.Examples)
	b.recorder.PagesGenerated(st.report.PagesWritten)
	b.recorder.PagesPurged(st.report.PagesPurged)

	if err != nil {
		slog.Error("build failed", logfields.BuildID(buildID), logfields.Error(err))
		return st.report, err
	}

	slog.Info("build finished",
		logfields.BuildID(buildID),
		logfields.Count(st.report.Examples),
		logfields.DurationMS(float64(st.report.Duration.Microseconds())/1000))
	return st.report, nil
}
