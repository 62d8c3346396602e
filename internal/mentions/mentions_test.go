package mentions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReturnsLabelsInOrder(t *testing.T) {
	labels := Parse("@[Alice](u1) hi @[Bob](u2)")
	require.Equal(t, []string{"Alice", "Bob"}, labels)
}

func TestParseKeepsDuplicates(t *testing.T) {
	labels := Parse("@[Alice](u1) and again @[Alice](u1)")
	require.Equal(t, []string{"Alice", "Alice"}, labels)
}

func TestParseEmptyInput(t *testing.T) {
	require.Empty(t, Parse(""))
	require.Empty(t, Parse("no mentions here"))
}

func TestParseIgnoresMalformedMarkup(t *testing.T) {
	cases := []string{
		"@[Alice(u1)",
		"@[Alice](u 1)",
		"@Alice](u1)",
		"@[](u1)",
		"[Alice](u1)",
	}
	for _, text := range cases {
		require.Empty(t, Parse(text), "input %q", text)
	}
}

func TestParseLabelMayContainSpaces(t *testing.T) {
	labels := Parse("cc @[Mary Ann Smith](u42)")
	require.Equal(t, []string{"Mary Ann Smith"}, labels)
}

func TestParseAllExposesTokens(t *testing.T) {
	all := ParseAll("@[Alice](u1) hi @[Bob](u2)")
	require.Len(t, all, 2)
	require.Equal(t, Mention{Label: "Alice", Token: "u1"}, all[0])
	require.Equal(t, Mention{Label: "Bob", Token: "u2"}, all[1])
}

func TestParseCapsOversizedInput(t *testing.T) {
	oversized := strings.Repeat("x", maxScanBytes) + "@[Alice](u1)"
	require.Empty(t, Parse(oversized))

	within := "@[Alice](u1)" + strings.Repeat("x", maxScanBytes)
	require.Equal(t, []string{"Alice"}, Parse(within))
}

func TestParseNonOverlapping(t *testing.T) {
	// Matches never overlap: once "(u2)" closes the first token the scanner
	// resumes after it, so the trailing "](u1)" is plain text.
	labels := Parse("@[A@[B](u2)](u1)")
	require.Equal(t, []string{"A@[B"}, labels)
}
