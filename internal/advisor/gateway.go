// File: internal/advisor/gateway.go
//
// Package advisor is the narrow boundary with the external advice service:
// submit a structured profile, receive free-form text. Every transport,
// timeout or empty-response failure is mapped to ErrUnavailable at this
// boundary and never propagates as a crash.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
)

// ErrUnavailable is the single error value callers see for any advisor
// failure. Callers fall back to skip suggestions or record an execution
// error; they never branch on the underlying cause.
var ErrUnavailable = errors.New("advisor unavailable")

// Gateway wraps a transport provider with profile serialization and failure
// mapping. One gateway is shared by all stage agents of a session.
type Gateway struct {
	client schemas.AdvisorClient
	cfg    config.AdvisorConfig
	logger *zap.Logger
}

// NewGateway builds a gateway over the configured provider.
func NewGateway(cfg config.AdvisorConfig, logger *zap.Logger) (*Gateway, error) {
	client, err := NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewGatewayWithClient(client, cfg, logger), nil
}

// NewGatewayWithClient wires an explicit client; tests inject mocks here.
func NewGatewayWithClient(client schemas.AdvisorClient, cfg config.AdvisorConfig, logger *zap.Logger) *Gateway {
	return &Gateway{client: client, cfg: cfg, logger: logger.Named("advisor")}
}

// Advise performs one advice round trip: the payload is serialized as
// indented JSON and sent under the fixed stage instruction. The response is
// raw text; parsing and validation belong to the interpreter, not here.
func (g *Gateway) Advise(ctx context.Context, systemPrompt string, payload interface{}) (string, error) {
	userPrompt, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal profile: %v", ErrUnavailable, err)
	}

	req := schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   string(userPrompt),
		Options: schemas.GenerationOptions{
			Temperature: g.cfg.Temperature,
			MaxTokens:   g.cfg.MaxTokens,
		},
	}

	raw, err := g.client.GenerateResponse(ctx, req)
	if err != nil {
		g.logger.Warn("Advice round trip failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(raw) == "" {
		g.logger.Warn("Advice round trip returned empty text")
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return raw, nil
}
