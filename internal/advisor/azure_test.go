// File: internal/advisor/azure_test.go
package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
)

func azureTestConfig(endpoint string) config.AdvisorConfig {
	return config.AdvisorConfig{
		Provider:        config.ProviderAzureOpenAI,
		Endpoint:        endpoint,
		APIKey:          "test-key",
		APIVersion:      "2024-02-01",
		Deployment:      "gpt-4o",
		APITimeout:      5 * time.Second,
		Temperature:     0.2,
		MaxTokens:       512,
		MaxRetryElapsed: 3 * time.Second,
	}
}

func azureChatResponse(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestAzureClientRequiresCredentials(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewAzureOpenAIClient(config.AdvisorConfig{Endpoint: "https://x"}, logger)
	assert.ErrorContains(t, err, "API key")

	_, err = NewAzureOpenAIClient(config.AdvisorConfig{APIKey: "k"}, logger)
	assert.ErrorContains(t, err, "endpoint")
}

func TestAzureGenerateResponse(t *testing.T) {
	var sawPath, sawKey string
	var sawPayload azureRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawPath = r.URL.String()
		sawKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sawPayload))
		w.Write([]byte(azureChatResponse(`{"columns": []}`)))
	}))
	defer server.Close()

	client, err := NewAzureOpenAIClient(azureTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := client.GenerateResponse(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You are an assistant.",
		UserPrompt:   "profile",
		Options:      schemas.GenerationOptions{Temperature: 0.2, MaxTokens: 512, ForceJSONFormat: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"columns": []}`, got)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions?api-version=2024-02-01", sawPath)
	assert.Equal(t, "test-key", sawKey)
	require.Len(t, sawPayload.Messages, 2)
	assert.Equal(t, "system", sawPayload.Messages[0].Role)
	assert.Equal(t, "You are an assistant.", sawPayload.Messages[0].Content)
	assert.Equal(t, "user", sawPayload.Messages[1].Role)
	require.NotNil(t, sawPayload.ResponseFormat)
	assert.Equal(t, "json_object", sawPayload.ResponseFormat.Type)
}

func TestAzureRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(azureChatResponse("ok")))
	}))
	defer server.Close()

	client, err := NewAzureOpenAIClient(azureTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAzureBadRequestIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad payload"}}`))
	}))
	defer server.Close()

	client, err := NewAzureOpenAIClient(azureTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 400")
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestAzureNoChoicesIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client, err := NewAzureOpenAIClient(azureTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	assert.ErrorContains(t, err, "no choices")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAzureContentFilterIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}]}`))
	}))
	defer server.Close()

	client, err := NewAzureOpenAIClient(azureTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	assert.ErrorContains(t, err, "filtered")
}
