// File: internal/agent/outliers.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/interpret"
)

// OutliersAgent suggests per-column treatments for extreme numeric values.
// Unlike the enumerated stages, the instruction for a chosen treatment needs
// concrete bounds, so code generation goes through the advisor with the
// column's statistics attached.
type OutliersAgent struct {
	base
}

func NewOutliersAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *OutliersAgent {
	return &OutliersAgent{base: newBase(adv, interp, logger, schemas.StageOutliers)}
}

func (a *OutliersAgent) Name() schemas.Stage { return schemas.StageOutliers }

type outlierProfile struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	P25  float64 `json:"25%"`
	P50  float64 `json:"50%"`
	P75  float64 `json:"75%"`
	Max  float64 `json:"max"`
}

// Profile computes descriptive statistics for every numeric column.
func (a *OutliersAgent) Profile(f *dataset.Frame) []outlierProfile {
	var profile []outlierProfile
	for _, s := range numericColumns(f) {
		d, ok := dataset.DescribeColumn(s)
		if !ok {
			continue
		}
		profile = append(profile, outlierProfile{
			Name: s.Name(),
			Mean: d.Mean, Std: d.Std,
			Min: d.Min, P25: d.P25, P50: d.P50, P75: d.P75, Max: d.Max,
		})
	}
	return profile
}

func (a *OutliersAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
	profile := a.Profile(f)
	if len(profile) == 0 {
		return nil, nil
	}

	names := make([]string, len(profile))
	dtypes := make([]string, len(profile))
	for i, p := range profile {
		names[i] = p.Name
		if s, ok := f.Column(p.Name); ok {
			dtypes[i] = string(s.Kind())
		}
	}
	entities := entitiesOf(names, dtypes)

	raw, err := a.advisor.Advise(ctx, advisor.OutliersPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		return interpret.AllSkip(entities, advisorDownReason), nil
	}
	return a.interp.ColumnSuggestions(schemas.StageOutliers, raw, entities), nil
}

func (a *OutliersAgent) GenerateCode(ctx context.Context, f *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionClipToBounds, schemas.ActionWinsorize,
		schemas.ActionRemoveOutliers, schemas.ActionFlagOutliers:
	default:
		return "", fmt.Errorf("outliers stage cannot perform action %q", choice.Action)
	}

	req := codeGenRequest{
		Column: choice.Entity,
		Action: string(choice.Action),
		Reason: choice.Reason,
	}
	if s, ok := f.Column(choice.Entity); ok {
		if d, ok := dataset.DescribeColumn(s); ok {
			req.Stats = d
		}
	}
	return a.generateInstruction(ctx, req)
}
