// Package llm abstracts the text-completion capability behind a small
// interface so the pipeline can run, degraded, without it and so tests can
// supply a mock.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/victorlin/jiraq/internal/config"
)

// Completer turns a system instruction plus user content into free-form
// text. Implementations enforce no output schema; all structural validation
// happens on the caller's side.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AzureClient calls the Azure OpenAI chat-completions API.
type AzureClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewAzureClient creates a completion client from validated configuration.
func NewAzureClient(cfg config.LLMConfig) *AzureClient {
	return &AzureClient{cfg: cfg, client: http.DefaultClient}
}

// NewAzureClientWithHTTP is NewAzureClient with an explicit HTTP client,
// used by tests to point at a local server.
func NewAzureClientWithHTTP(cfg config.LLMConfig, client *http.Client) *AzureClient {
	return &AzureClient{cfg: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request. Temperature is pinned to zero
// so extraction output stays deterministic.
func (c *AzureClient) Complete(ctx context.Context, system, user string) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Deployment, c.cfg.APIVersion)

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// StripFence removes markdown code-fence wrapping from a completion before
// JSON parsing. Models routinely wrap JSON in ``` fences despite being told
// not to.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
