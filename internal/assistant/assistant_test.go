package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidocs/internal/bridge"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGeneratorIsDeterministic(t *testing.T) {
	gen := MockGenerator{}
	ctx := context.Background()

	first, err := gen.Generate(ctx, ActionSummarize, "The quick brown fox jumps over the lazy dog near the river bank today")
	require.NoError(t, err)
	second, err := gen.Generate(ctx, ActionSummarize, "The quick brown fox jumps over the lazy dog near the river bank today")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "Summary: "))
}

func TestMockGeneratorUnknownAction(t *testing.T) {
	_, err := MockGenerator{}.Generate(context.Background(), Action("translate"), "hola")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestAcceptDeliversToBridge(t *testing.T) {
	ib := bridge.NewInsertionBridge()
	svc := NewServiceWithGenerator(MockGenerator{}, ib)

	var received string
	unsub := ib.Subscribe(func(text string) { received = text })
	defer unsub()

	assert.True(t, svc.Accept("generated paragraph"))
	assert.Equal(t, "generated paragraph", received)
}

func TestAcceptDropsWithoutEditor(t *testing.T) {
	svc := NewServiceWithGenerator(MockGenerator{}, bridge.NewInsertionBridge())
	assert.False(t, svc.Accept("nobody is listening"))
}

func TestNewServicePicksMockWithoutKey(t *testing.T) {
	svc := NewService("", bridge.NewInsertionBridge())
	_, ok := svc.gen.(MockGenerator)
	assert.True(t, ok)

	svc = NewService("sk-test", bridge.NewInsertionBridge())
	_, ok = svc.gen.(*OpenAIGenerator)
	assert.True(t, ok)
}

func authHeader(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestGenerateEndpoint(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mux := http.NewServeMux()
	NewHandler(NewServiceWithGenerator(MockGenerator{}, nil)).Register(mux)

	body := `{"action":"ideas","selection":"team offsite planning"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate", strings.NewReader(body))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Result, "Ideas:")
}

func TestGenerateEndpointRejectsUnknownAction(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mux := http.NewServeMux()
	NewHandler(NewServiceWithGenerator(MockGenerator{}, nil)).Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate", strings.NewReader(`{"action":"translate","selection":"x"}`))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenAIGeneratorParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "draft text")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  polished text  "}},
			},
		})
	}))
	defer server.Close()

	gen := NewOpenAIGenerator("sk-test")
	gen.Client = server.Client()
	gen.Endpoint = server.URL

	out, err := gen.Generate(context.Background(), ActionImprove, "draft text")
	require.NoError(t, err)
	assert.Equal(t, "polished text", out)
}
