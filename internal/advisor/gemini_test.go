// File: internal/advisor/gemini_test.go
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

func geminiTestConfig(endpoint string) config.AdvisorConfig {
	return config.AdvisorConfig{
		Provider:        config.ProviderGemini,
		Endpoint:        endpoint,
		APIKey:          "test-key",
		Deployment:      "gemini-2.0-flash",
		APITimeout:      5 * time.Second,
		Temperature:     0.2,
		MaxTokens:       512,
		MaxRetryElapsed: 3 * time.Second,
	}
}

func geminiResponse(text string) string {
	payload := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content":      map[string]interface{}{"role": "model", "parts": []map[string]string{{"text": text}}},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]int{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(config.AdvisorConfig{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "API key")
}

func TestGeminiDefaultEndpointFromModel(t *testing.T) {
	client, err := NewGeminiClient(config.AdvisorConfig{
		APIKey:     "k",
		Deployment: "gemini-2.0-flash",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
		client.endpoint)
}

func TestGeminiGenerateResponse(t *testing.T) {
	var sawKey string
	var sawPayload geminiRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sawPayload))
		w.Write([]byte(geminiResponse(`{"status": "completed"}`)))
	}))
	defer server.Close()

	client, err := NewGeminiClient(geminiTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := client.GenerateResponse(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You are an assistant.",
		UserPrompt:   "profile",
		Options:      schemas.GenerationOptions{Temperature: 0.2, MaxTokens: 512, ForceJSONFormat: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"status": "completed"}`, got)

	assert.Equal(t, "test-key", sawKey)
	require.Len(t, sawPayload.Contents, 1)
	assert.Equal(t, "user", sawPayload.Contents[0].Role)
	assert.Equal(t, "profile", sawPayload.Contents[0].Parts[0].Text)
	require.NotNil(t, sawPayload.SystemInstruction)
	assert.Equal(t, "You are an assistant.", sawPayload.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", sawPayload.GenerationConfig.ResponseMimeType)
}

func TestGeminiRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(geminiResponse("ok")))
	}))
	defer server.Close()

	client, err := NewGeminiClient(geminiTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiSafetyBlockIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"candidates": [{"content": {"parts": []}, "finishReason": "SAFETY"}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(geminiTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	assert.ErrorContains(t, err, "SAFETY")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewGeminiClient(geminiTestConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), schemas.GenerationRequest{})
	assert.ErrorContains(t, err, "status 404")
	assert.Equal(t, int32(1), calls.Load())
}
