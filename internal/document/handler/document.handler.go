package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"aidocs/internal/document/model"
	"aidocs/internal/document/repository"
	"aidocs/internal/document/service"
	"aidocs/middleware"
	"aidocs/pkg/logger"
)

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Register mounts the document routes on the mux.
func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/documents", middleware.AuthMiddleware(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/documents", middleware.AuthMiddleware(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/documents/{id}", middleware.AuthMiddleware(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/documents/{id}", middleware.AuthMiddleware(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/documents/{id}", middleware.AuthMiddleware(http.HandlerFunc(h.Archive)))
	mux.Handle("DELETE /api/documents/{id}/permanent", middleware.AuthMiddleware(http.HandlerFunc(h.Delete)))
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in model.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Create(userID, in)
	if err != nil {
		http.Error(w, "Failed to create document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	metas, err := h.svc.List(userID)
	if err != nil {
		http.Error(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}
	if metas == nil {
		metas = []model.DocumentMetadata{}
	}
	writeJSON(w, http.StatusOK, metas)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	doc, err := h.svc.Get(r.PathValue("id"), userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in model.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.Empty() {
		http.Error(w, "No fields to update", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Update(r.PathValue("id"), userID, in)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Archive soft-deletes: the document moves to trash and stays recoverable
// through a PATCH with isArchived=false.
func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	doc, err := h.svc.Archive(r.PathValue("id"), userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete permanently purges a document from trash, including children.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Delete(r.PathValue("id"), userID); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	logger.Sugar.Errorf("Document request failed: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
