// File: internal/agent/datatypes.go
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

const typeSampleLimit = 5

// DataTypesAgent suggests the best storage type per column.
type DataTypesAgent struct {
	base
}

func NewDataTypesAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *DataTypesAgent {
	return &DataTypesAgent{base: newBase(adv, interp, logger, schemas.StageDataTypes)}
}

func (a *DataTypesAgent) Name() schemas.Stage { return schemas.StageDataTypes }

type typeProfile struct {
	Name         string   `json:"name"`
	Dtype        string   `json:"dtype"`
	SampleValues []string `json:"sample_values"`
}

// Profile lists every column with its current dtype and a handful of unique
// non-null sample values.
func (a *DataTypesAgent) Profile(f *dataset.Frame) []typeProfile {
	profile := make([]typeProfile, 0, f.NumCols())
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		profile = append(profile, typeProfile{
			Name:         name,
			Dtype:        string(s.Kind()),
			SampleValues: s.Uniques(typeSampleLimit),
		})
	}
	return profile
}

func (a *DataTypesAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
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

	raw, err := a.advisor.Advise(ctx, advisor.DataTypesPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		return interpret.AllSkip(entities, advisorDownReason), nil
	}
	return a.interp.ColumnSuggestions(schemas.StageDataTypes, raw, entities), nil
}

// GenerateCode emits a cast instruction directly; no advisor round trip is
// needed for an enumerated target type.
func (a *DataTypesAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	if choice.Action == schemas.ActionSkip || choice.Action == "" {
		return noActionCode, nil
	}
	kind, ok := castKind(choice.Action)
	if !ok {
		return "", fmt.Errorf("data types stage cannot perform action %q", choice.Action)
	}
	return ops.Cast{Column: choice.Entity, Target: kind}.String(), nil
}

func castKind(action schemas.Action) (dataset.Kind, bool) {
	switch action {
	case schemas.ActionCastInt:
		return dataset.KindInt, true
	case schemas.ActionCastFloat:
		return dataset.KindFloat, true
	case schemas.ActionCastDatetime:
		return dataset.KindTime, true
	case schemas.ActionCastCategory:
		return dataset.KindCategory, true
	case schemas.ActionCastString:
		return dataset.KindString, true
	}
	return "", false
}
