package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/manifest"
)

func testConfig(t *testing.T, galleryEnabled bool) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Source = filepath.Join(root, "docs")
	cfg.Output = filepath.Join(root, "site", "content")
	cfg.Gallery.Enabled = galleryEnabled
	require.NoError(t, os.MkdirAll(cfg.Source, 0o750))
	return cfg
}

func writeDoc(t *testing.T, cfg *config.Config, relPath, content string) {
	t.Helper()
	full := filepath.Join(cfg.Source, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func readOutput(t *testing.T, cfg *config.Config, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	return string(data)
}

func TestRun_FullBuild_PublishesContentAndGallery(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "guides/install.md", ""+
		"---\n"+
		"title: Install Guide\n"+
		"---\n"+
		"Intro.\n"+
		"<!-- example: Opening A File -->\n"+
		"<!-- tags: io -->\n"+
		"Open it carefully.\n"+
		"<!-- /example -->\n"+
		"Outro.\n")
	writeDoc(t, cfg, "guides/diagram.png", "not really a png")

	report, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Documents)
	require.Equal(t, 1, report.Examples)
	require.Equal(t, 1, report.Tags)

	// In-place rendition: frontmatter intact, markers gone, anchor inserted.
	page := readOutput(t, cfg, "guides/install.md")
	require.Contains(t, page, "title: Install Guide")
	require.Contains(t, page, "<a id=\"example-src-opening-a-file\"></a>")
	require.Contains(t, page, "Open it carefully.")
	require.NotContains(t, page, "<!-- example:")
	require.NotContains(t, page, "<!-- tags:")
	require.NotContains(t, page, "<!-- /example -->")

	// Assets copied through.
	require.Equal(t, "not really a png", readOutput(t, cfg, "guides/diagram.png"))

	// Gallery pages: example, landing, tag.
	require.Contains(t, readOutput(t, cfg, "examples/opening-a-file.md"), "Open it carefully.")
	require.Contains(t, readOutput(t, cfg, "examples/_index.md"), "[Opening A File](opening-a-file.md)")
	require.Contains(t, readOutput(t, cfg, "examples/tags/io.md"), "[Opening A File](../opening-a-file.md)")
}

func TestRun_GalleryDisabled_StripsMarkersButWritesNoGallery(t *testing.T) {
	cfg := testConfig(t, false)
	writeDoc(t, cfg, "guide.md", ""+
		"<!-- example: Demo -->\n"+
		"Content.\n"+
		"<!-- /example -->\n")

	report, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Examples)
	require.Equal(t, 0, report.PagesWritten)

	page := readOutput(t, cfg, "guide.md")
	require.NotContains(t, page, "<!-- example:")
	require.Contains(t, page, "Content.")

	_, err = os.Stat(cfg.GalleryPath())
	require.True(t, os.IsNotExist(err))
}

func TestRun_GalleryDisabled_StillValidatesMarkers(t *testing.T) {
	cfg := testConfig(t, false)
	writeDoc(t, cfg, "bad.md", "<!-- example: Never Closed -->\nContent.\n")

	_, err := NewBuilder(cfg, nil).Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsFatal(err))
}

func TestRun_DuplicateTitlesAcrossDocuments_FailsBuild(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "<!-- example: Same -->\nA.\n<!-- /example -->\n")
	writeDoc(t, cfg, "b.md", "<!-- example: Same -->\nB.\n<!-- /example -->\n")

	_, err := NewBuilder(cfg, nil).Run(context.Background())
	require.Error(t, err)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryAuthoring, ce.Category())
}

func TestRun_RemovedExample_PurgesStaleGalleryPage(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "<!-- example: Keeper -->\nA.\n<!-- /example -->\n")
	writeDoc(t, cfg, "b.md", "<!-- example: Goner -->\nB.\n<!-- /example -->\n")

	_, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cfg.GalleryPath(), "goner.md"))

	// The example disappears from the sources; its page must follow.
	writeDoc(t, cfg, "b.md", "No examples anymore.\n")

	report, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.PagesPurged)
	require.NoFileExists(t, filepath.Join(cfg.GalleryPath(), "goner.md"))
	require.FileExists(t, filepath.Join(cfg.GalleryPath(), "keeper.md"))
}

func TestRun_UnchangedSources_SecondBuildWritesNothing(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "<!-- example: Stable -->\n<!-- tags: io -->\nA.\n<!-- /example -->\n")

	_, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	report, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.PagesWritten)
	require.Equal(t, 0, report.PagesPurged)
}

func TestRun_DotFilesAndDirectories_Skipped(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "real.md", "Content.\n")
	writeDoc(t, cfg, ".hidden.md", "<!-- example: Broken\n")
	writeDoc(t, cfg, ".git/config.md", "<!-- example: Broken\n")

	report, err := NewBuilder(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Documents)
}

func TestRun_WithManifest_RecordsArtifacts(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "<!-- example: Recorded -->\nA.\n<!-- /example -->\n")

	store, err := manifest.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	report, err := NewBuilder(cfg, store).Run(context.Background())
	require.NoError(t, err)

	entries, err := store.LatestArtifacts(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2) // example page + landing page
	require.Equal(t, report.BuildID, entries[0].BuildID)
}

func TestRun_WithManifest_RemovedExampleReportedAsRetired(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "<!-- example: Keeper -->\nA.\n<!-- /example -->\n")
	writeDoc(t, cfg, "b.md", "<!-- example: Goner -->\nB.\n<!-- /example -->\n")

	store, err := manifest.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	report, err := NewBuilder(cfg, store).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.PagesRetired)

	writeDoc(t, cfg, "b.md", "No examples anymore.\n")

	report, err = NewBuilder(cfg, store).Run(context.Background())
	require.NoError(t, err)
	// goner.md is gone from the artifact set; the landing page survives.
	require.Equal(t, 1, report.PagesRetired)
	require.Equal(t, 1, report.PagesPurged)
}

func TestRun_CanceledContext_AbortsBuild(t *testing.T) {
	cfg := testConfig(t, true)
	writeDoc(t, cfg, "a.md", "Content.\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(cfg, nil).Run(ctx)
	require.Error(t, err)
}
