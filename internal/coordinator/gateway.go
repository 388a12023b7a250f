package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"aidocs/internal/document/model"
)

// Gateway error taxonomy. ErrTransient covers network and server failures;
// the coordinator never retries it automatically.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("document not found")
	ErrTransient    = errors.New("transient persistence failure")
)

// Gateway is the persistence collaborator: fetch a snapshot, persist fields.
type Gateway interface {
	Fetch(ctx context.Context, documentID string) (*model.Document, error)
	SaveContent(ctx context.Context, documentID, content string) error
}

// HTTPGateway talks to the documents API with partial-update PATCH semantics.
type HTTPGateway struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{BaseURL: baseURL, Token: token, Client: http.DefaultClient}
}

func (g *HTTPGateway) Fetch(ctx context.Context, documentID string) (*model.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.BaseURL+"/api/documents/"+documentID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	var doc model.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrTransient, err)
	}
	return &doc, nil
}

func (g *HTTPGateway) SaveContent(ctx context.Context, documentID, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		g.BaseURL+"/api/documents/"+documentID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp.StatusCode)
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrTransient, code)
	}
}
