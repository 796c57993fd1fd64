// File: internal/advisor/factory.go
package advisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
)

// NewClient constructs the transport for the configured provider. All
// credentials and endpoints arrive through the config; there is no ambient
// client state.
func NewClient(cfg config.AdvisorConfig, logger *zap.Logger) (schemas.AdvisorClient, error) {
	switch cfg.Provider {
	case config.ProviderAzureOpenAI:
		return NewAzureOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}
}
