package blocks

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Block is the atomic unit of editor content. The coordinator treats the
// sequence as opaque beyond "valid ordered sequence or not"; the type tags
// mirror what the editor produces.
type Block struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

const (
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeList      = "list"
	TypeCode      = "code"
	TypeTodo      = "todo"
)

var (
	ErrNotSequence   = errors.New("content is not a block sequence")
	ErrEmptySequence = errors.New("block sequence is empty")
)

// Parse decodes a persisted content string into a block sequence. Content
// that does not start with the array marker is rejected up front so plain
// text is never half-parsed as JSON.
func Parse(content string) ([]Block, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, ErrNotSequence
	}
	var seq []Block
	if err := json.Unmarshal([]byte(trimmed), &seq); err != nil {
		return nil, err
	}
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}
	return seq, nil
}

// DefaultSequence is the seed used when no valid persisted content exists.
func DefaultSequence() []Block {
	return []Block{{Type: TypeParagraph, Content: ""}}
}

// Seed decides the initial editor content for a session: the persisted
// sequence when it parses to something non-empty, the default paragraph
// otherwise. Malformed content is recovered here and never surfaced.
func Seed(persisted string) []Block {
	if persisted == "" {
		return DefaultSequence()
	}
	seq, err := Parse(persisted)
	if err != nil {
		return DefaultSequence()
	}
	return seq
}

// Marshal serializes a block sequence for persistence.
func Marshal(seq []Block) string {
	data, err := json.Marshal(seq)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Flatten joins the text of every block into a single plain string.
func Flatten(seq []Block) string {
	var sb strings.Builder
	for _, b := range seq {
		if b.Content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(b.Content)
	}
	return sb.String()
}

// Snippet produces a short plain-text preview of persisted content. Content
// that is not a block sequence is preserved as raw text rather than dropped.
func Snippet(content string, max int) string {
	var text string
	if seq, err := Parse(content); err == nil {
		text = Flatten(seq)
	} else {
		text = content
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		return string(runes[:max]) + "..."
	}
	return text
}
