package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewError_DefaultSeverity_IsError(t *testing.T) {
	err := NewError(CategoryAuthoring, "bad marker").Build()
	require.Equal(t, CategoryAuthoring, err.Category())
	require.Equal(t, SeverityError, err.Severity())
}

func TestWrapError_PreservesCauseForErrorsIs(t *testing.T) {
	cause := stderrors.New("underlying")
	err := WrapError(cause, CategoryFileSystem, "read failed").Build()

	require.True(t, stderrors.Is(err, cause))
	require.ErrorContains(t, err, "underlying")
}

func TestError_RendersContextSorted(t *testing.T) {
	err := NewError(CategoryAuthoring, "duplicate example title").
		WithSeverity(SeverityFatal).
		WithContext("line", 12).
		WithContext("document", "guides/install").
		Build()

	// Context keys are sorted so the same error always renders identically.
	require.Equal(t,
		"[authoring:fatal] duplicate example title (document=guides/install, line=12)",
		err.Error())
}

func TestIsFatal_SeverityDrivesResult(t *testing.T) {
	require.True(t, IsFatal(NewError(CategoryConfig, "x").Fatal().Build()))
	require.True(t, IsFatal(NewError(CategoryConfig, "x").Build()))
	require.False(t, IsFatal(NewError(CategoryConfig, "x").Warning().Build()))
	require.False(t, IsFatal(nil))
}

func TestIsFatal_UnclassifiedError_TreatedAsFatal(t *testing.T) {
	require.True(t, IsFatal(stderrors.New("unknown failure")))
}

func TestAsClassified_FindsErrorThroughWrapping(t *testing.T) {
	inner := NewError(CategoryGallery, "render failed").Build()
	wrapped := WrapError(inner, CategoryInternal, "stage failed").Build()

	ce, ok := AsClassified(wrapped)
	require.True(t, ok)
	// Outermost classified error wins.
	require.Equal(t, CategoryInternal, ce.Category())
}

func TestIsCategory_MatchesOwnCategoryOnly(t *testing.T) {
	err := NewError(CategoryManifest, "x").Build()
	require.True(t, err.IsCategory(CategoryManifest))
	require.False(t, err.IsCategory(CategoryConfig))
}
