// File: internal/agent/validation.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/interpret"
)

// ValidationAgent runs the final quality review. It never changes the frame:
// its suggestions are a report, and each found issue can be forwarded to the
// general issue flow for an actual fix.
type ValidationAgent struct {
	base
}

func NewValidationAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *ValidationAgent {
	return &ValidationAgent{base: newBase(adv, interp, logger, schemas.StageValidation)}
}

func (a *ValidationAgent) Name() schemas.Stage { return schemas.StageValidation }

type validationProfile struct {
	MissingValues int    `json:"missing_values"`
	DuplicateRows int    `json:"duplicate_rows"`
	DataTypes     string `json:"data_types"`
}

func (a *ValidationAgent) Profile(f *dataset.Frame) validationProfile {
	var types strings.Builder
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		fmt.Fprintf(&types, "%s: %s\n", name, s.Kind())
	}
	return validationProfile{
		MissingValues: f.TotalNulls(),
		DuplicateRows: f.DuplicateCount(),
		DataTypes:     types.String(),
	}
}

func (a *ValidationAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
	profile := a.Profile(f)

	raw, err := a.advisor.Advise(ctx, advisor.ValidationPrompt, profile)
	if err != nil {
		return []schemas.Suggestion{{
			Entity: interpret.DatasetEntity,
			Action: schemas.ActionSkip,
			Reason: advisorDownReason,
		}}, nil
	}

	status, issues, err := a.interp.Validation(raw)
	if err != nil {
		return []schemas.Suggestion{{
			Entity: interpret.DatasetEntity,
			Action: schemas.ActionSkip,
			Reason: "Validation response could not be interpreted.",
		}}, nil
	}
	if status == schemas.ActionValidationCompleted {
		return []schemas.Suggestion{{
			Entity: interpret.DatasetEntity,
			Action: schemas.ActionValidationCompleted,
			Reason: "No data quality issues found.",
		}}, nil
	}
	a.logger.Info("Validation found issues", zap.Int("count", len(issues)))
	return issues, nil
}

// GenerateCode is always a no-op: validation reports, it does not clean.
func (a *ValidationAgent) GenerateCode(context.Context, *dataset.Frame, schemas.Choice) (string, error) {
	return noActionCode, nil
}
