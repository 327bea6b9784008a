package marker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlug_TitleCase_LowercasesAndHyphenates(t *testing.T) {
	require.Equal(t, "opening-a-file", Slug("Opening A File"))
}

func TestSlug_Punctuation_CollapsesToSingleHyphen(t *testing.T) {
	require.Equal(t, "read-write-basics", Slug("Read/Write: Basics!"))
}

func TestSlug_AccentedLetters_StripDiacritics(t *testing.T) {
	require.Equal(t, "resume-cafe", Slug("Résumé Café"))
}

func TestSlug_LeadingTrailingSeparators_Trimmed(t *testing.T) {
	require.Equal(t, "trimmed", Slug("  --Trimmed--  "))
}

func TestSlug_Digits_Preserved(t *testing.T) {
	require.Equal(t, "step-2-of-3", Slug("Step 2 of 3"))
}

func TestSlug_SameInput_IsDeterministic(t *testing.T) {
	a := Slug("Some Fancy Title")
	b := Slug("Some Fancy Title")
	require.Equal(t, a, b)
}
