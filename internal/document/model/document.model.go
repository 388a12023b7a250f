package model

import "time"

type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     *string   `json:"content"`
	CoverImage  *string   `json:"coverImage"`
	Icon        *string   `json:"icon"`
	IsPublished bool      `json:"isPublished"`
	IsArchived  bool      `json:"isArchived"`
	ParentID    *string   `json:"parentId"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	ParentID   *string `json:"parentId"`
	CoverImage *string `json:"coverImage"`
	Icon       *string `json:"icon"`
}

// UpdateInput carries partial-update semantics: nil means "field absent from
// the request", so omitted fields are left untouched.
type UpdateInput struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	CoverImage  *string `json:"coverImage"`
	Icon        *string `json:"icon"`
	IsPublished *bool   `json:"isPublished"`
	IsArchived  *bool   `json:"isArchived"`
	ParentID    *string `json:"parentId"`
}

// Empty reports whether no field was provided at all.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.Content == nil && in.CoverImage == nil &&
		in.Icon == nil && in.IsPublished == nil && in.IsArchived == nil && in.ParentID == nil
}

type DocumentMetadata struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Icon      *string   `json:"icon"`
	ParentID  *string   `json:"parentId"`
	Snippet   string    `json:"snippet"`
	UpdatedAt time.Time `json:"updatedAt"`
}
