package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorlin/jiraq/internal/config"
)

func TestStripFence(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fence",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "language-tagged fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fence with surrounding whitespace",
			in:   "  ```json\n{\"a\": 1}\n```  ",
			want: `{"a": 1}`,
		},
		{
			name: "unterminated fence",
			in:   "```json\n{\"a\": 1}",
			want: `{"a": 1}`,
		},
		{
			name: "multiline body",
			in:   "```\nline one\nline two\n```",
			want: "line one\nline two",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFence(tc.in))
		})
	}
}

func TestAzureClientComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "extracted"}},
			},
		})
	}))
	defer server.Close()

	client := NewAzureClientWithHTTP(config.LLMConfig{
		Endpoint:   server.URL,
		APIKey:     "secret",
		Deployment: "gpt-4o",
		APIVersion: "2024-02-01",
	}, server.Client())

	out, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "extracted", out)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions?api-version=2024-02-01", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "system text", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Zero(t, gotBody.Temperature)
}

func TestAzureClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewAzureClientWithHTTP(config.LLMConfig{
		Endpoint:   server.URL,
		Deployment: "gpt-4o",
		APIVersion: "2024-02-01",
	}, server.Client())

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAzureClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewAzureClientWithHTTP(config.LLMConfig{
		Endpoint:   server.URL,
		Deployment: "gpt-4o",
		APIVersion: "2024-02-01",
	}, server.Client())

	_, err := client.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	assert.NotEmpty(t, ExtractionSystem())

	extraction, err := RenderExtraction("Query: KFC 的工作\nYear: 2025")
	require.NoError(t, err)
	assert.Contains(t, extraction, "KFC 的工作")
	assert.Contains(t, extraction, "user_conditions")

	relevance, err := RenderRelevance("Android 相關工作", `[{"key": "KFC-1"}]`)
	require.NoError(t, err)
	assert.Contains(t, relevance, "Android 相關工作")
	assert.Contains(t, relevance, `[{"key": "KFC-1"}]`)
	assert.Contains(t, relevance, "relevant_tasks")
}
