package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aidocs/internal/document/model"
	"aidocs/pkg/logger"

	"github.com/google/uuid"
)

// ErrNotFound means the id does not resolve to a document owned by the caller.
var ErrNotFound = errors.New("document not found")

const documentColumns = `id, title, content, cover_image, icon, is_published, is_archived, parent_id, user_id, created_at, updated_at`

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(userID string, in model.CreateInput) (*model.Document, error) {
	if in.Title == "" {
		in.Title = "Untitled"
	}
	row := r.DB.QueryRow(`
		INSERT INTO documents (id, title, content, cover_image, icon, is_published, is_archived, parent_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6, $7, NOW(), NOW())
		RETURNING `+documentColumns,
		uuid.NewString(), in.Title, in.Content, in.CoverImage, in.Icon, in.ParentID, userID)

	doc, err := scanDocument(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) Get(docID, userID string) (*model.Document, error) {
	row := r.DB.QueryRow(
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`,
		docID, userID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get document %s: %v", docID, err)
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) List(userID string) ([]model.Document, error) {
	rows, err := r.DB.Query(
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 AND is_archived = FALSE ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Update applies only the provided fields; omitted fields are left untouched.
func (r *DocumentRepository) Update(docID, userID string, in model.UpdateInput) (*model.Document, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Content != nil {
		add("content", *in.Content)
	}
	if in.CoverImage != nil {
		add("cover_image", *in.CoverImage)
	}
	if in.Icon != nil {
		add("icon", *in.Icon)
	}
	if in.IsPublished != nil {
		add("is_published", *in.IsPublished)
	}
	if in.IsArchived != nil {
		add("is_archived", *in.IsArchived)
	}
	if in.ParentID != nil {
		add("parent_id", *in.ParentID)
	}
	if len(sets) == 0 {
		return r.Get(docID, userID)
	}

	args = append(args, docID, userID)
	query := fmt.Sprintf(
		`UPDATE documents SET %s, updated_at = NOW() WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), documentColumns)

	doc, err := scanDocument(r.DB.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update document %s: %v", docID, err)
		return nil, err
	}
	return doc, nil
}

// Archive soft-deletes: the document stays recoverable from trash.
func (r *DocumentRepository) Archive(docID, userID string) (*model.Document, error) {
	archived := true
	return r.Update(docID, userID, model.UpdateInput{IsArchived: &archived})
}

// Delete permanently removes a document and its children.
func (r *DocumentRepository) Delete(docID, userID string) error {
	res, err := r.DB.Exec(
		`DELETE FROM documents WHERE (id = $1 OR parent_id = $1) AND user_id = $2`,
		docID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete document %s: %v", docID, err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*model.Document, error) {
	var doc model.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.CoverImage, &doc.Icon,
		&doc.IsPublished, &doc.IsArchived, &doc.ParentID, &doc.UserID,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
