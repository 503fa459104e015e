package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultEndpoint = "/chat/completions"
	defaultTimeout  = 30 * time.Second

	guessSystemPrompt = "Output only your single word guess."
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAI implements Provider against an OpenAI-compatible chat completions API.
type OpenAI struct {
	apiKey      string
	endpointURL string
	httpClient  *http.Client
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI builds the client. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new openai provider: api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenAI{
		apiKey:      apiKey,
		endpointURL: strings.TrimRight(baseURL, "/") + defaultEndpoint,
		httpClient:  httpClient,
	}, nil
}

func (o *OpenAI) UpdateNote(ctx context.Context, model, prompt string, history []Line) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: "system", Content: prompt})
	for _, line := range history {
		messages = append(messages, chatMessage{Role: line.Role, Content: line.Content})
	}
	text, err := o.complete(ctx, chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("update note: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (o *OpenAI) Guess(ctx context.Context, model, prompt string) (string, error) {
	text, err := o.complete(ctx, chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: guessSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   5,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("guess: %w", err)
	}
	return NormalizeToken(text), nil
}

func (o *OpenAI) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("provider request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("provider request build: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request execute: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("provider response read: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("provider response status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("provider response decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider response decode: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
