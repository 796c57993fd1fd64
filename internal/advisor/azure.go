// File: internal/advisor/azure.go
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
)

// AzureOpenAIClient implements schemas.AdvisorClient against the Azure
// OpenAI chat-completions API (deployment-scoped endpoint, api-key header).
type AzureOpenAIClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.AdvisorConfig
}

// -- Azure chat-completions request/response shapes (internal to this file) --

type azureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type azureRequestPayload struct {
	Messages       []azureMessage       `json:"messages"`
	Temperature    float32              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	ResponseFormat *azureResponseFormat `json:"response_format,omitempty"`
}

type azureResponseFormat struct {
	Type string `json:"type"`
}

type azureResponsePayload struct {
	Choices []struct {
		Message      azureMessage `json:"message"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewAzureOpenAIClient initializes the client.
func NewAzureOpenAIClient(cfg config.AdvisorConfig, logger *zap.Logger) (*AzureOpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure OpenAI API key is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure OpenAI endpoint is required")
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		cfg.Endpoint, cfg.Deployment, cfg.APIVersion)

	return &AzureOpenAIClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("advisor_client.azure"),
	}, nil
}

// GenerateResponse sends the prompts to the chat-completions endpoint and
// returns the generated content, retrying transient failures.
func (c *AzureOpenAIClient) GenerateResponse(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	payload := azureRequestPayload{
		Messages: []azureMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	}
	if req.Options.ForceJSONFormat {
		payload.ResponseFormat = &azureResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.config.MaxRetryElapsed
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}
	b.MaxInterval = 30 * time.Second

	var responseContent string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("api-key", c.apiKey)

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			c.logger.Warn("Network error during advice request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var responsePayload azureResponsePayload
		if err := json.Unmarshal(respBody, &responsePayload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}

		if len(responsePayload.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("azure OpenAI returned no choices"))
		}

		choice := responsePayload.Choices[0]
		if choice.Message.Content == "" {
			if choice.FinishReason == "content_filter" {
				return backoff.Permanent(fmt.Errorf("azure OpenAI filtered the request"))
			}
			return fmt.Errorf("azure OpenAI returned empty content (reason: %s)", choice.FinishReason)
		}

		c.logger.Info("Advice generation complete (Azure OpenAI)",
			zap.Duration("duration", duration),
			zap.Int("prompt_tokens", responsePayload.Usage.PromptTokens),
			zap.Int("completion_tokens", responsePayload.Usage.CompletionTokens),
			zap.Int("total_tokens", responsePayload.Usage.TotalTokens),
		)

		responseContent = choice.Message.Content
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}

	return responseContent, nil
}

func (c *AzureOpenAIClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Azure OpenAI returned error status", zap.Int("status", statusCode), zap.ByteString("response", body))
	err := fmt.Errorf("azure OpenAI error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
