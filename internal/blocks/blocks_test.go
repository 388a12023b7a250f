package blocks

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedWithPersistedContent(t *testing.T) {
	seq := Seed(`[{"type":"paragraph","content":"hello"}]`)
	require.Len(t, seq, 1)
	assert.Equal(t, TypeParagraph, seq[0].Type)
	assert.Equal(t, "hello", seq[0].Content)
}

func TestSeedWithEmptyContent(t *testing.T) {
	seq := Seed("")
	require.Len(t, seq, 1)
	assert.Equal(t, TypeParagraph, seq[0].Type)
	assert.Equal(t, "", seq[0].Content)
}

func TestSeedWithMalformedJSON(t *testing.T) {
	assert.NotPanics(t, func() {
		seq := Seed(`[{"type": "paragraph", "content":`)
		assert.Equal(t, DefaultSequence(), seq)
	})
}

func TestSeedWithEmptySequence(t *testing.T) {
	seq := Seed(`[]`)
	assert.Equal(t, DefaultSequence(), seq)
}

func TestSeedWithPlainText(t *testing.T) {
	// Raw text is not a block sequence; seeding falls back to the default.
	seq := Seed("just some notes")
	assert.Equal(t, DefaultSequence(), seq)
}

func TestParseRejectsNonSequence(t *testing.T) {
	_, err := Parse(`{"type":"paragraph"}`)
	assert.ErrorIs(t, err, ErrNotSequence)

	_, err = Parse("plain text")
	assert.ErrorIs(t, err, ErrNotSequence)
}

func TestParseAllowsLeadingWhitespace(t *testing.T) {
	seq, err := Parse("  \n[{\"type\":\"paragraph\",\"content\":\"x\"}]")
	require.NoError(t, err)
	assert.Len(t, seq, 1)
}

func TestSnippetFromBlockSequence(t *testing.T) {
	content := `[{"type":"heading","content":"Title"},{"type":"paragraph","content":"body text"}]`
	assert.Equal(t, "Title body text", Snippet(content, 100))
}

func TestSnippetPreservesRawText(t *testing.T) {
	assert.Equal(t, "plain notes here", Snippet("plain notes\nhere", 100))
}

func TestSnippetTruncates(t *testing.T) {
	got := Snippet("abcdefghij", 4)
	assert.Equal(t, "abcd...", got)
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	got := Snippet("日本語のテキスト", 4)
	assert.Equal(t, "日本語の...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestMarshalRoundTrip(t *testing.T) {
	seq := []Block{{Type: TypeParagraph, Content: "hello"}}
	parsed, err := Parse(Marshal(seq))
	require.NoError(t, err)
	assert.Equal(t, seq, parsed)
}
