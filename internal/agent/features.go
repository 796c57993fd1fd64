// File: internal/agent/features.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/interpret"
	"github.com/adelmore/scour-cli/internal/ops"
)

// FeatureGenerationAgent proposes new columns derived from existing ones.
// The entities here are advisor-invented feature names rather than profiled
// columns, so the suggestion list can be any length including empty.
type FeatureGenerationAgent struct {
	base
}

func NewFeatureGenerationAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *FeatureGenerationAgent {
	return &FeatureGenerationAgent{base: newBase(adv, interp, logger, schemas.StageFeatureGeneration)}
}

func (a *FeatureGenerationAgent) Name() schemas.Stage { return schemas.StageFeatureGeneration }

type featureProfile struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

func (a *FeatureGenerationAgent) Profile(f *dataset.Frame) []featureProfile {
	profile := make([]featureProfile, 0, f.NumCols())
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		profile = append(profile, featureProfile{Name: name, Dtype: string(s.Kind())})
	}
	return profile
}

func (a *FeatureGenerationAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
	profile := a.Profile(f)
	if len(profile) == 0 {
		return nil, nil
	}

	raw, err := a.advisor.Advise(ctx, advisor.FeatureGenerationPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		a.logger.Warn("No feature suggestions available", zap.Error(err))
		return nil, nil
	}

	suggestions := a.interp.FeatureSuggestions(raw)

	// A formula that cannot be parsed, or that references a column the frame
	// does not have, is downgraded here so the review form never offers an
	// unexecutable feature.
	for i, s := range suggestions {
		if s.Action != schemas.ActionDeriveFeature {
			continue
		}
		if err := validateFormula(f, s.Params.Formula); err != nil {
			suggestions[i].Action = schemas.ActionSkip
			suggestions[i].Reason = fmt.Sprintf("Suggested formula is not usable: %v", err)
			suggestions[i].Params.Formula = ""
		}
	}
	return suggestions, nil
}

// GenerateCode wraps the formula into a derive instruction; the formula IS
// the code, there is nothing further to generate.
func (a *FeatureGenerationAgent) GenerateCode(_ context.Context, f *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionDeriveFeature:
	default:
		return "", fmt.Errorf("feature generation stage cannot perform action %q", choice.Action)
	}
	if err := validateFormula(f, choice.Params.Formula); err != nil {
		return "", err
	}
	return ops.Derive{Name: choice.Entity, Formula: choice.Params.Formula}.String(), nil
}

func validateFormula(f *dataset.Frame, formula string) error {
	parsed, err := ops.ParseFormula(formula)
	if err != nil {
		return err
	}
	for _, col := range parsed.Columns() {
		s, ok := f.Column(col)
		if !ok {
			return fmt.Errorf("formula references unknown column %q", col)
		}
		if !s.IsNumeric() && s.Kind() != dataset.KindBool {
			return fmt.Errorf("formula references non-numeric column %q", col)
		}
	}
	return nil
}
