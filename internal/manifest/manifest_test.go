package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLatestArtifacts_EmptyStore_ReturnsNil(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.LatestArtifacts(context.Background())
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestRecordArtifacts_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginBuild(ctx, "build-1", "abc123"))
	require.NoError(t, s.RecordArtifacts(ctx,
		"build-1",
		[]string{"demo.md", "_index.md"},
		[]string{"fp-demo", "fp-index"}))

	entries, err := s.LatestArtifacts(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Sorted by path.
	require.Equal(t, "_index.md", entries[0].RelPath)
	require.Equal(t, "fp-index", entries[0].Fingerprint)
	require.Equal(t, "demo.md", entries[1].RelPath)
}

func TestRecordArtifacts_MismatchedLengths_ReturnsError(t *testing.T) {
	s := openTestStore(t)

	err := s.RecordArtifacts(context.Background(), "b", []string{"a.md"}, nil)
	require.Error(t, err)
}

func TestLatestArtifacts_ReturnsMostRecentBuildOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginBuild(ctx, "build-1", ""))
	require.NoError(t, s.RecordArtifacts(ctx, "build-1", []string{"old.md"}, []string{"fp-old"}))

	require.NoError(t, s.BeginBuild(ctx, "build-2", ""))
	require.NoError(t, s.RecordArtifacts(ctx, "build-2", []string{"new.md"}, []string{"fp-new"}))

	entries, err := s.LatestArtifacts(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "new.md", entries[0].RelPath)
	require.Equal(t, "build-2", entries[0].BuildID)
}
