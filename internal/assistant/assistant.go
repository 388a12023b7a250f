// Package assistant turns editor selections into generated text through a
// small action catalog and hands accepted results to the insertion bridge.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aidocs/internal/bridge"
	"aidocs/pkg/logger"
)

// Action identifies one entry of the assistant's catalog.
type Action string

const (
	ActionImprove   Action = "improve"
	ActionSummarize Action = "summarize"
	ActionExpand    Action = "expand"
	ActionIdeas     Action = "ideas"
)

var ErrUnknownAction = errors.New("unknown assistant action")

// prompts maps each action to the instruction sent ahead of the selection.
var prompts = map[Action]string{
	ActionImprove:   "Improve the writing of the following text. Keep the meaning, fix grammar and clarity:",
	ActionSummarize: "Summarize the following text in a few short sentences:",
	ActionExpand:    "Expand the following text with more detail and supporting points:",
	ActionIdeas:     "Brainstorm a short list of ideas related to the following text:",
}

// Generator produces text for an action applied to a selection.
type Generator interface {
	Generate(ctx context.Context, action Action, selection string) (string, error)
}

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	openAIModel    = "gpt-4o-mini"
)

// OpenAIGenerator calls the chat completions API.
type OpenAIGenerator struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewOpenAIGenerator(apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{
		APIKey:   apiKey,
		Endpoint: openAIEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, action Action, selection string) (string, error) {
	prompt, ok := prompts[action]
	if !ok {
		return "", ErrUnknownAction
	}

	body, err := json.Marshal(chatRequest{
		Model: openAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a writing assistant inside a document editor. Reply with the result only, no preamble."},
			{Role: "user", Content: prompt + "\n\n" + selection},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant backend returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("assistant backend returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// MockGenerator produces deterministic output without a network call; used
// when no API key is configured so the feature stays demoable offline.
type MockGenerator struct{}

func (MockGenerator) Generate(_ context.Context, action Action, selection string) (string, error) {
	if _, ok := prompts[action]; !ok {
		return "", ErrUnknownAction
	}
	selection = strings.TrimSpace(selection)
	switch action {
	case ActionSummarize:
		return "Summary: " + firstWords(selection, 12), nil
	case ActionExpand:
		return selection + "\n\nIn more detail, this point deserves further elaboration.", nil
	case ActionIdeas:
		return "Ideas:\n- Build on \"" + firstWords(selection, 6) + "\"\n- Consider the opposite angle\n- Outline next steps", nil
	default:
		return firstWords(selection, 1000), nil
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// Service wires generation to the insertion bridge.
type Service struct {
	gen    Generator
	bridge *bridge.InsertionBridge
}

// NewService picks the real backend when an API key is present and the
// deterministic mock otherwise.
func NewService(apiKey string, ib *bridge.InsertionBridge) *Service {
	var gen Generator
	if apiKey != "" {
		gen = NewOpenAIGenerator(apiKey)
	} else {
		logger.Sugar.Warn("OPENAI_API_KEY not set, assistant runs with the offline mock generator")
		gen = MockGenerator{}
	}
	return &Service{gen: gen, bridge: ib}
}

func NewServiceWithGenerator(gen Generator, ib *bridge.InsertionBridge) *Service {
	return &Service{gen: gen, bridge: ib}
}

func (s *Service) Generate(ctx context.Context, action Action, selection string) (string, error) {
	return s.gen.Generate(ctx, action, selection)
}

// Accept pushes a generated result toward the mounted editor. It reports
// whether an editor consumed it; the caller surfaces a drop to the user.
func (s *Service) Accept(text string) bool {
	if s.bridge == nil {
		return false
	}
	delivered := s.bridge.Publish(text)
	if !delivered {
		logger.Sugar.Warn("Generated content dropped: no editor is mounted")
	}
	return delivered
}
