package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidocs/internal/document/model"
	"aidocs/internal/document/repository"
	"aidocs/internal/document/service"
	"aidocs/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopRooms struct{}

func (nopRooms) RemoveRoom(string)       {}
func (nopRooms) Notify(socket.WSMessage) {}

func newTestMux(t *testing.T) (*http.ServeMux, sqlmock.Sqlmock) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewDocumentService(repository.NewDocumentRepository(db), nopRooms{})
	mux := http.NewServeMux()
	NewDocumentHandler(svc).Register(mux)
	return mux, mock
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func docRows(id, title, content string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "content", "cover_image", "icon", "is_published",
		"is_archived", "parent_id", "user_id", "created_at", "updated_at",
	}).AddRow(id, title, content, nil, nil, false, false, nil, "user-1", now, now)
}

func TestGetDocument(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1 AND user_id = \$2`).
		WithArgs("doc-1", "user-1").
		WillReturnRows(docRows("doc-1", "Notes", `[{"type":"paragraph","content":"hi"}]`))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Notes", doc.Title)
	require.NotNil(t, doc.Content)
	assert.Contains(t, *doc.Content, "paragraph")
}

func TestGetDocumentNotFound(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1 AND user_id = \$2`).
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDocumentUnauthorized(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateDocumentDefaultsTitle(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(sqlmock.AnyArg(), "Untitled", "", nil, nil, nil, "user-1").
		WillReturnRows(docRows("doc-new", "Untitled", ""))

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Untitled", doc.Title)
}

func TestUpdateDocumentPartial(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`UPDATE documents SET icon = \$1, updated_at = NOW\(\)`).
		WithArgs("📝", "doc-1", "user-1").
		WillReturnRows(docRows("doc-1", "Notes", "[]"))

	req := httptest.NewRequest(http.MethodPatch, "/api/documents/doc-1", strings.NewReader(`{"icon":"📝"}`))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateDocumentEmptyBody(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/documents/doc-1", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDocumentBadBody(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/documents/doc-1", strings.NewReader(`{notjson`))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteArchivesDocument(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`UPDATE documents SET is_archived = \$1`).
		WithArgs(true, "doc-1", "user-1").
		WillReturnRows(docRows("doc-1", "Notes", "[]"))

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPermanentDeleteDocument(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs("doc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1/permanent", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListDocumentsEmpty(t *testing.T) {
	mux, mock := newTestMux(t)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
