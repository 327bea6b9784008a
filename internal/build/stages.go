package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docgallery/internal/docmodel"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/frontmatter"
	"git.home.luguber.info/inful/docgallery/internal/gallery"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/marker"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

// stageFn mutates the build state; the first error aborts the whole build.
type stageFn func(ctx context.Context, st *state) error

type stageDef struct {
	name string
	fn   stageFn
}

// runStages executes stages in order, recording timing and stopping on the
// first error. This is the barrier between collection and generation: the
// generate stage only runs once collect has completed site-wide.
func runStages(ctx context.Context, st *state, stages []stageDef) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			return errors.WrapError(ctx.Err(), errors.CategoryInternal, "build canceled").
				WithContext("stage", sd.name).
				Build()
		default:
		}

		t0 := time.Now()
		err := sd.fn(ctx, st)
		dur := time.Since(t0)
		st.report.StageDurations[sd.name] = dur
		slog.Debug("stage finished", logfields.Stage(sd.name), logfields.DurationMS(float64(dur.Microseconds())/1000))

		if err != nil {
			return err
		}
	}
	return nil
}

// stageDiscover walks the docs tree and splits it into markdown documents and
// assets to copy through.
func stageDiscover(_ context.Context, st *state) error {
	root := st.cfg.Source
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if strings.EqualFold(filepath.Ext(name), ".md") {
			st.docFiles = append(st.docFiles, rel)
		} else {
			st.assetFiles = append(st.assetFiles, rel)
		}
		return nil
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk docs tree").
			WithContext("path", root).
			Build()
	}

	st.report.Documents = len(st.docFiles)
	slog.Info("discovered documents", logfields.Count(len(st.docFiles)), logfields.Path(root))
	return nil
}

// stageCollect parses every document and extracts its example regions.
// Registration order is discovery order; title uniqueness is enforced by the
// registry across the whole site.
func stageCollect(_ context.Context, st *state) error {
	for _, rel := range st.docFiles {
		doc, err := docmodel.ParseFile(st.cfg.Source, rel)
		if err != nil {
			return err
		}

		extraction, err := marker.ExtractDocument(doc)
		if err != nil {
			return err
		}

		for _, ex := range extraction.Examples {
			if err := st.registry.Register(ex); err != nil {
				return err
			}
			slog.Debug("collected example",
				logfields.Example(ex.ID), logfields.Document(ex.Docname), logfields.Line(ex.Line))
		}

		// The pristine document is kept for reference-conflict analysis during
		// cloning; the stripped body is what gets published in place.
		st.docs[doc.Docname] = doc
		st.stripped[doc.Docname] = extraction.Body
	}

	st.registry.Seal()
	st.report.Examples = st.registry.Len()
	slog.Info("collection phase complete", logfields.Count(st.registry.Len()))
	return nil
}

// stageWriteContent publishes the in-place rendition: every document with
// markers stripped, plus assets copied through unchanged.
func stageWriteContent(_ context.Context, st *state) error {
	for docname, doc := range st.docs {
		out := frontmatter.Join(doc.FrontmatterRaw(), st.stripped[docname], doc.HadFrontmatter(), doc.Style())
		full := filepath.Join(st.cfg.Output, filepath.FromSlash(doc.RelPath))
		if err := writeFile(full, out); err != nil {
			return err
		}
	}

	for _, rel := range st.assetFiles {
		src := filepath.Join(st.cfg.Source, rel)
		data, err := os.ReadFile(src) // #nosec G304 -- discovered by walking the docs root.
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to read asset").
				WithContext("path", src).
				Build()
		}
		if err := writeFile(filepath.Join(st.cfg.Output, rel), data); err != nil {
			return err
		}
	}
	return nil
}

// stageGenerate renders and publishes the gallery. With the gallery disabled
// this is a no-op: extraction and validation already ran, nothing is written
// and any previous gallery output is left alone.
func stageGenerate(ctx context.Context, st *state) error {
	if !st.cfg.Gallery.Enabled {
		slog.Info("gallery generation disabled; skipping")
		return nil
	}

	gen := gallery.NewGenerator(st.cfg.Gallery)
	gen.SourceCommit = st.report.SourceCommit

	artifacts, err := gen.Generate(st.registry, st.docs)
	if err != nil {
		return err
	}
	st.artifacts = artifacts

	galleryDir := st.cfg.GalleryPath()
	written, err := gallery.WriteArtifacts(galleryDir, artifacts)
	if err != nil {
		return err
	}

	keep := sets.New[string]()
	for _, a := range artifacts {
		keep.Add(a.RelPath)
	}

	// The manifest diff catches removed or renamed examples even when the
	// gallery directory was cleaned out of band; the sweep below handles
	// whatever is actually on disk.
	if st.manifest != nil {
		previous, err := st.manifest.LatestArtifacts(ctx)
		if err != nil {
			slog.Warn("could not load previous build artifacts", logfields.Error(err))
		}
		for _, entry := range previous {
			if keep.Has(entry.RelPath) {
				continue
			}
			st.report.PagesRetired++
			slog.Info("page from previous build no longer generated",
				logfields.Path(entry.RelPath), logfields.BuildID(entry.BuildID))
		}
	}

	purged, err := gallery.Purge(galleryDir, keep)
	if err != nil {
		return err
	}

	tags, err := st.registry.Tags()
	if err != nil {
		return err
	}

	st.report.Tags = len(tags)
	st.report.PagesWritten = written
	st.report.PagesPurged = len(purged)
	slog.Info("gallery generated",
		logfields.Count(len(artifacts)),
		logfields.Path(galleryDir),
		logfields.Tag(strings.Join(tags, ",")))
	return nil
}

// stageRecordManifest persists the artifact set for the next build's
// stale-page reporting. Skipped when no manifest store is configured.
func stageRecordManifest(ctx context.Context, st *state) error {
	if st.manifest == nil || !st.cfg.Gallery.Enabled {
		return nil
	}

	if err := st.manifest.BeginBuild(ctx, st.report.BuildID, st.report.SourceCommit); err != nil {
		return errors.WrapError(err, errors.CategoryManifest, "failed to record build").Build()
	}

	paths := make([]string, len(st.artifacts))
	prints := make([]string, len(st.artifacts))
	for i, a := range st.artifacts {
		paths[i] = a.RelPath
		prints[i] = a.Fingerprint
	}
	if err := st.manifest.RecordArtifacts(ctx, st.report.BuildID, paths, prints); err != nil {
		return errors.WrapError(err, errors.CategoryManifest, "failed to record artifacts").Build()
	}
	return nil
}

func writeFile(full string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(full)).
			Build()
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext("path", full).
			Build()
	}
	return nil
}
