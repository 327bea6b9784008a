package docmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_DerivesDocnameFromRelPath(t *testing.T) {
	doc, err := Parse(filepath.Join("guides", "install.md"), []byte("body\n"))
	require.NoError(t, err)
	require.Equal(t, "guides/install", doc.Docname)
	require.Equal(t, "guides/install.md", doc.RelPath)
	require.Equal(t, "guides", doc.Dir())
}

func TestParse_TopLevelDocument_DirIsDot(t *testing.T) {
	doc, err := Parse("index.md", []byte("body\n"))
	require.NoError(t, err)
	require.Equal(t, "index", doc.Docname)
	require.Equal(t, ".", doc.Dir())
}

func TestParse_WithFrontmatter_SplitsAndRoundTrips(t *testing.T) {
	content := []byte("---\ntitle: Guide\n---\n# Heading\n")

	doc, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.True(t, doc.HadFrontmatter())
	require.Equal(t, []byte("title: Guide\n"), doc.FrontmatterRaw())
	require.Equal(t, []byte("# Heading\n"), doc.Body())
	require.Equal(t, content, doc.Bytes())
}

func TestParse_UnclosedFrontmatter_ReturnsError(t *testing.T) {
	_, err := Parse("bad.md", []byte("---\ntitle: x\nbody without closing\n"))
	require.Error(t, err)
}

func TestBodyLineOffset_CountsDelimitersAndFrontmatterLines(t *testing.T) {
	doc, err := Parse("guide.md", []byte("---\ntitle: Guide\nweight: 2\n---\nbody\n"))
	require.NoError(t, err)
	// Two delimiter lines plus two frontmatter lines.
	require.Equal(t, 4, doc.BodyLineOffset())

	plain, err := Parse("plain.md", []byte("body\n"))
	require.NoError(t, err)
	require.Equal(t, 0, plain.BodyLineOffset())
}

func TestSetBody_ReplacesBodyInBytes(t *testing.T) {
	doc, err := Parse("guide.md", []byte("---\ntitle: Guide\n---\nold body\n"))
	require.NoError(t, err)

	doc.SetBody([]byte("new body\n"))
	require.Equal(t, []byte("---\ntitle: Guide\n---\nnew body\n"), doc.Bytes())
}

func TestParseFile_ReadsFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guides"), 0o750))
	full := filepath.Join(root, "guides", "install.md")
	require.NoError(t, os.WriteFile(full, []byte("# Install\n"), 0o600))

	doc, err := ParseFile(root, filepath.Join("guides", "install.md"))
	require.NoError(t, err)
	require.Equal(t, "guides/install", doc.Docname)
	require.Equal(t, full, doc.FilePath)
}

func TestParseFile_MissingFile_ReturnsError(t *testing.T) {
	_, err := ParseFile(t.TempDir(), "missing.md")
	require.Error(t, err)
}
