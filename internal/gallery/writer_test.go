package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

func TestWriteArtifacts_WritesFilesAndCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	artifacts := []Artifact{
		{RelPath: "demo.md", Content: []byte("demo page\n")},
		{RelPath: "tags/io.md", Content: []byte("tag page\n")},
	}

	written, err := WriteArtifacts(dir, artifacts)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	data, err := os.ReadFile(filepath.Join(dir, "demo.md"))
	require.NoError(t, err)
	require.Equal(t, "demo page\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "tags", "io.md"))
	require.NoError(t, err)
	require.Equal(t, "tag page\n", string(data))
}

func TestWriteArtifacts_UnchangedContent_Skipped(t *testing.T) {
	dir := t.TempDir()
	artifacts := []Artifact{{RelPath: "demo.md", Content: []byte("stable\n")}}

	written, err := WriteArtifacts(dir, artifacts)
	require.NoError(t, err)
	require.Equal(t, 1, written)

	written, err = WriteArtifacts(dir, artifacts)
	require.NoError(t, err)
	require.Equal(t, 0, written)
}

func TestPurge_RemovesStalePagesKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.md"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tags"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tags", "old.md"), []byte("x"), 0o600))

	keep := sets.New[string]()
	keep.Add("keep.md")

	removed, err := Purge(dir, keep)
	require.NoError(t, err)
	require.Equal(t, []string{"stale.md", "tags/old.md"}, removed)

	_, err = os.Stat(filepath.Join(dir, "keep.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "stale.md"))
	require.True(t, os.IsNotExist(err))

	// tags/ lost its last page and is pruned with it.
	_, err = os.Stat(filepath.Join(dir, "tags"))
	require.True(t, os.IsNotExist(err))
}

func TestPurge_NonMarkdownFiles_LeftAlone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diagram.png"), []byte("x"), 0o600))

	removed, err := Purge(dir, sets.New[string]())
	require.NoError(t, err)
	require.Empty(t, removed)

	_, err = os.Stat(filepath.Join(dir, "diagram.png"))
	require.NoError(t, err)
}

func TestPurge_MissingGalleryDir_NoError(t *testing.T) {
	removed, err := Purge(filepath.Join(t.TempDir(), "never-created"), sets.New[string]())
	require.NoError(t, err)
	require.Empty(t, removed)
}
