// Package editor defines the surface the sync coordinator consumes from the
// rich-text editor, and the routine that merges generated content into the
// live document at the cursor.
package editor

import (
	"errors"
	"strings"

	"aidocs/internal/blocks"
	"aidocs/pkg/logger"
)

type BlockID string

type Position string

const (
	After  Position = "after"
	Before Position = "before"
)

var (
	ErrNoCursor        = errors.New("no active cursor")
	ErrUnknownAnchor   = errors.New("anchor block not found")
	ErrInsertionFailed = errors.New("could not insert generated content")
)

// Editor is the editor-framework collaborator. The document model behind it
// is opaque; the coordinator only seeds it, serializes it, and inserts into it.
type Editor interface {
	CursorBlock() (BlockID, error)
	LastBlock() (BlockID, error)
	InsertBlocks(seq []blocks.Block, anchor BlockID, pos Position) ([]BlockID, error)
	OnChange(fn func()) (unsubscribe func())
	Document() []blocks.Block
	SetDocument(seq []blocks.Block)
}

// InsertGenerated splits text into non-empty lines and inserts one paragraph
// block per line immediately after the cursor block, preserving line order.
// When the cursor lookup fails the insertion is retried once against the last
// block; a second failure abandons the insertion with a logged error. The
// document is never left corrupted and nothing here panics.
func InsertGenerated(ed Editor, text string) error {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	anchor, err := ed.CursorBlock()
	if err != nil {
		anchor, err = ed.LastBlock()
		if err != nil {
			logger.Sugar.Errorf("Dropping generated content, no insertion anchor: %v", err)
			return ErrInsertionFailed
		}
	}

	for _, line := range lines {
		ids, err := ed.InsertBlocks(
			[]blocks.Block{{Type: blocks.TypeParagraph, Content: line}}, anchor, After)
		if err != nil {
			logger.Sugar.Errorf("Failed to insert generated content: %v", err)
			return ErrInsertionFailed
		}
		if len(ids) > 0 {
			anchor = ids[len(ids)-1]
		}
	}
	return nil
}
