package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEdits_NoEdits_ReturnsSourceUnchanged(t *testing.T) {
	source := []byte("untouched")
	out, err := ApplyEdits(source, nil)
	require.NoError(t, err)
	require.Equal(t, source, out)
}

func TestApplyEdits_Replacement_SwapsRange(t *testing.T) {
	out, err := ApplyEdits([]byte("a OLD c"), []Edit{
		{Start: 2, End: 5, Replacement: []byte("NEW")},
	})
	require.NoError(t, err)
	require.Equal(t, "a NEW c", string(out))
}

func TestApplyEdits_Deletion_RemovesRange(t *testing.T) {
	out, err := ApplyEdits([]byte("keep DROP keep"), []Edit{
		{Start: 4, End: 9},
	})
	require.NoError(t, err)
	require.Equal(t, "keep keep", string(out))
}

func TestApplyEdits_MultipleEdits_OffsetsStayValid(t *testing.T) {
	// Replacements of different lengths; unsorted input.
	out, err := ApplyEdits([]byte("one two three"), []Edit{
		{Start: 8, End: 13, Replacement: []byte("3")},
		{Start: 0, End: 3, Replacement: []byte("eleven")},
	})
	require.NoError(t, err)
	require.Equal(t, "eleven two 3", string(out))
}

func TestApplyEdits_OverlappingRanges_ReturnsError(t *testing.T) {
	_, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 0, End: 4},
		{Start: 2, End: 6},
	})
	require.Error(t, err)
}

func TestApplyEdits_OutOfBounds_ReturnsError(t *testing.T) {
	_, err := ApplyEdits([]byte("abc"), []Edit{{Start: 1, End: 10}})
	require.Error(t, err)
}

func TestLineAt_CountsNewlines(t *testing.T) {
	source := []byte("first\nsecond\nthird\n")
	require.Equal(t, 1, LineAt(source, 0))
	require.Equal(t, 1, LineAt(source, 5))
	require.Equal(t, 2, LineAt(source, 6))
	require.Equal(t, 3, LineAt(source, 13))
}
