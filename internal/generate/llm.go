package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 600
	httpTimeout      = 30 * time.Second
)

var errEmptyCompletion = errors.New("empty completion")

// LLMConfig configures an OpenAI-compatible chat completions client.
type LLMConfig struct {
	Endpoint  string
	Model     string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// LLM asks an OpenAI-compatible API for post copy. It never falls back on
// its own; an error goes back to Resolve.
type LLM struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewLLM creates a client. Empty fields take defaults.
func NewLLM(cfg LLMConfig) *LLM {
	l := &LLM{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		endpoint:  cfg.Endpoint,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
	if l.endpoint == "" {
		l.endpoint = defaultEndpoint
	}
	if l.model == "" {
		l.model = defaultModel
	}
	if l.maxTokens <= 0 {
		l.maxTokens = defaultMaxTokens
	}
	if l.client.Timeout <= 0 {
		l.client.Timeout = httpTimeout
	}
	return l
}

// Generate calls the API with a prompt built from pack and instruction.
// Hashtags always come from the pack.
func (l *LLM) Generate(ctx context.Context, pack Pack, instruction string) (Copy, error) {
	system, user := Prompt(pack, instruction)
	content, err := l.complete(ctx, system, user)
	if err != nil {
		return Copy{}, err
	}
	return Copy{
		Content:  parseContent(content),
		Hashtags: append([]string(nil), pack.Common().Hashtags...),
	}, nil
}

func (l *LLM) complete(ctx context.Context, system, user string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqBody := chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: l.maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", errEmptyCompletion
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseContent accepts {"content": "..."} with or without a code fence and
// falls back to the raw text.
func parseContent(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	var out struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &out); err == nil && strings.TrimSpace(out.Content) != "" {
		return strings.TrimSpace(out.Content)
	}
	return strings.TrimSpace(raw)
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Template generates from the fallback templates only. It backs the
// "template" generation mode.
type Template struct {
	Builder FallbackBuilder
}

// Generate returns the template copy for pack.
func (t Template) Generate(_ context.Context, pack Pack, _ string) (Copy, error) {
	b := t.Builder
	if b == nil {
		b = Templates{}
	}
	return b.Build(pack), nil
}
