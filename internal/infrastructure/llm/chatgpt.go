package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsLabeler/internal/config"
	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/ports"
)

// ChatGPTClient scores labels through an OpenAI-compatible chat completion API.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	template     string
	httpClient   *http.Client
}

var _ ports.ScoreOracle = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig, hypothesisTemplate string) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		template:     hypothesisTemplate,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the backend in errors and logs.
func (c *ChatGPTClient) Name() string {
	return "chatgpt"
}

// Score asks the model for an independent probability per hypothesis.
func (c *ChatGPTClient) Score(ctx context.Context, text string, labels []domain.Category) (domain.ScoreResult, error) {
	if c == nil {
		return nil, fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildUserPrompt(text, labels, c.template)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chatgpt returned no choices")
	}

	return parseScores(completion.Choices[0].Message.Content, labels)
}

func buildUserPrompt(text string, labels []domain.Category, template string) string {
	var b strings.Builder
	b.WriteString("Article:\n")
	b.WriteString(text)
	b.WriteString("\n\nFor each hypothesis give the probability (0 to 1) that it is true. ")
	b.WriteString("Judge each one independently; they need not sum to 1.\n")
	for _, label := range labels {
		b.WriteString("- ")
		b.WriteString(string(label))
		b.WriteString(": ")
		b.WriteString(hypothesis(template, label))
		b.WriteString("\n")
	}
	b.WriteString("\nAnswer with a JSON object mapping each label name to its probability.")
	return b.String()
}

func hypothesis(template string, label domain.Category) string {
	if template == "" || !strings.Contains(template, "{}") {
		return fmt.Sprintf("This article is about %s.", label)
	}
	return strings.Replace(template, "{}", string(label), 1)
}

func parseScores(content string, labels []domain.Category) (domain.ScoreResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw map[string]float64
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}

	byLabel := make(map[domain.Category]float64, len(raw))
	for name, score := range raw {
		category, err := domain.ParseCategory(name)
		if err != nil {
			continue
		}
		byLabel[category] = score
	}

	result := make(domain.ScoreResult, 0, len(labels))
	for _, label := range labels {
		score, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("no score for %s", label)
		}
		result = append(result, domain.LabelScore{Label: label, Score: score})
	}
	return result, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a news topic classifier. You answer only with JSON."
	}
	return prompt
}
