package gallery

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

// WriteArtifacts writes artifacts under galleryDir, creating directories as
// needed. Files whose content is already up to date are left untouched so
// watch-mode rebuilds do not churn mtimes. Returns the number of files written.
func WriteArtifacts(galleryDir string, artifacts []Artifact) (int, error) {
	written := 0
	for _, a := range artifacts {
		full := filepath.Join(galleryDir, filepath.FromSlash(a.RelPath))

		if existing, err := os.ReadFile(full); err == nil && bytes.Equal(existing, a.Content) { // #nosec G304
			continue
		}

		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "failed to create gallery directory").
				WithContext("path", filepath.Dir(full)).
				Build()
		}
		if err := os.WriteFile(full, a.Content, 0o600); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "failed to write gallery page").
				WithContext("path", full).
				Build()
		}
		written++
	}
	return written, nil
}

// Purge deletes generated markdown files under galleryDir that do not belong
// to the current artifact set, then prunes directories left empty. Stale pages
// for removed or renamed examples must never be served.
func Purge(galleryDir string, keep sets.Set[string]) ([]string, error) {
	var removed []string

	err := filepath.WalkDir(galleryDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(galleryDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if keep.Has(rel) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		removed = append(removed, rel)
		slog.Info("purged stale gallery page", logfields.Path(rel))
		return nil
	})
	if err != nil {
		return removed, errors.WrapError(err, errors.CategoryFileSystem, "failed to purge stale gallery pages").
			WithContext("path", galleryDir).
			Build()
	}

	pruneEmptyDirs(galleryDir)
	sort.Strings(removed)
	return removed, nil
}

// pruneEmptyDirs removes now-empty subdirectories (e.g. tags/ after the last
// tag page was purged). Best effort; the gallery root itself is kept.
func pruneEmptyDirs(galleryDir string) {
	var dirs []string
	_ = filepath.WalkDir(galleryDir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && p != galleryDir {
			dirs = append(dirs, p)
		}
		return nil
	})
	// Deepest first.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
}
