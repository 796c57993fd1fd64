// File: internal/agent/missing.go
package agent

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/interpret"
	"github.com/adelmore/scour-cli/internal/ops"
)

// MissingValuesAgent decides a per-column treatment for missing cells.
type MissingValuesAgent struct {
	base
}

func NewMissingValuesAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *MissingValuesAgent {
	return &MissingValuesAgent{base: newBase(adv, interp, logger, schemas.StageMissingValues)}
}

func (a *MissingValuesAgent) Name() schemas.Stage { return schemas.StageMissingValues }

type missingProfile struct {
	Name       string  `json:"name"`
	Dtype      string  `json:"dtype"`
	MissingPct float64 `json:"missing_pct"`
}

// Profile lists only columns that actually have missing cells. A fully
// populated frame yields an empty profile and the stage is a no-op.
func (a *MissingValuesAgent) Profile(f *dataset.Frame) []missingProfile {
	rows := f.NumRows()
	if rows == 0 {
		return nil
	}
	var profile []missingProfile
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		nulls := s.NullCount()
		if nulls == 0 {
			continue
		}
		pct := float64(nulls) / float64(rows) * 100
		profile = append(profile, missingProfile{
			Name:       name,
			Dtype:      string(s.Kind()),
			MissingPct: math.Round(pct*100) / 100,
		})
	}
	return profile
}

func (a *MissingValuesAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
	profile := a.Profile(f)
	if len(profile) == 0 {
		return nil, nil
	}

	names := make([]string, len(profile))
	dtypes := make([]string, len(profile))
	for i, p := range profile {
		names[i] = p.Name
		dtypes[i] = p.Dtype
	}
	entities := entitiesOf(names, dtypes)

	raw, err := a.advisor.Advise(ctx, advisor.MissingValuesPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		return interpret.AllSkip(entities, advisorDownReason), nil
	}
	return a.interp.ColumnSuggestions(schemas.StageMissingValues, raw, entities), nil
}

// GenerateCode maps the enumerated treatments onto instructions directly.
func (a *MissingValuesAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionDropRows:
		return ops.DropRows{Column: choice.Entity}.String(), nil
	case schemas.ActionDropColumn:
		return ops.DropColumn{Column: choice.Entity}.String(), nil
	case schemas.ActionFillMean:
		return ops.FillNA{Column: choice.Entity, Strategy: ops.FillMean}.String(), nil
	case schemas.ActionFillMedian:
		return ops.FillNA{Column: choice.Entity, Strategy: ops.FillMedian}.String(), nil
	case schemas.ActionFillMode:
		return ops.FillNA{Column: choice.Entity, Strategy: ops.FillMode}.String(), nil
	case schemas.ActionFillConstant:
		return ops.FillNA{Column: choice.Entity, Strategy: ops.FillConstant, Constant: choice.Params.ConstantValue}.String(), nil
	}
	return "", fmt.Errorf("missing values stage cannot perform action %q", choice.Action)
}
