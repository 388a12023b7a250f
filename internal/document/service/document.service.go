package service

import (
	"encoding/json"

	"aidocs/internal/blocks"
	"aidocs/internal/document/model"
	"aidocs/internal/document/repository"
	"aidocs/pkg/logger"
	"aidocs/socket"
)

const snippetLength = 120

// Rooms is the slice of the hub the service needs: notifying live
// collaborators about metadata changes and tearing rooms down on delete.
type Rooms interface {
	RemoveRoom(docID string)
	Notify(msg socket.WSMessage)
}

type DocumentService struct {
	repo  *repository.DocumentRepository
	rooms Rooms
}

func NewDocumentService(repo *repository.DocumentRepository, rooms Rooms) *DocumentService {
	return &DocumentService{repo: repo, rooms: rooms}
}

func (s *DocumentService) Create(userID string, in model.CreateInput) (*model.Document, error) {
	return s.repo.Create(userID, in)
}

func (s *DocumentService) Get(docID, userID string) (*model.Document, error) {
	return s.repo.Get(docID, userID)
}

// List returns lightweight metadata with a plain-text snippet per document,
// for sidebars and search results.
func (s *DocumentService) List(userID string) ([]model.DocumentMetadata, error) {
	docs, err := s.repo.List(userID)
	if err != nil {
		return nil, err
	}

	metas := make([]model.DocumentMetadata, 0, len(docs))
	for _, doc := range docs {
		var content string
		if doc.Content != nil {
			content = *doc.Content
		}
		metas = append(metas, model.DocumentMetadata{
			ID:        doc.ID,
			Title:     doc.Title,
			Icon:      doc.Icon,
			ParentID:  doc.ParentID,
			Snippet:   blocks.Snippet(content, snippetLength),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return metas, nil
}

func (s *DocumentService) Update(docID, userID string, in model.UpdateInput) (*model.Document, error) {
	doc, err := s.repo.Update(docID, userID, in)
	if err != nil {
		return nil, err
	}

	// Title and icon changes matter to everyone who has the room open.
	if in.Title != nil || in.Icon != nil {
		s.notifyMetadata(doc)
	}
	return doc, nil
}

func (s *DocumentService) Archive(docID, userID string) (*model.Document, error) {
	return s.repo.Archive(docID, userID)
}

// Delete permanently removes a document and disconnects its live room so
// stale in-memory state never flushes back over the tombstone.
func (s *DocumentService) Delete(docID, userID string) error {
	if err := s.repo.Delete(docID, userID); err != nil {
		return err
	}
	if s.rooms != nil {
		s.rooms.RemoveRoom(docID)
	}
	return nil
}

func (s *DocumentService) notifyMetadata(doc *model.Document) {
	if s.rooms == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"title": doc.Title, "icon": doc.Icon})
	if err != nil {
		logger.Sugar.Errorf("Failed to marshal metadata notification: %v", err)
		return
	}
	s.rooms.Notify(socket.WSMessage{
		Type:    socket.MetadataType,
		DocID:   doc.ID,
		Payload: payload,
	})
}
