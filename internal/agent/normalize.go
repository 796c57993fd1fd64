// File: internal/agent/normalize.go
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
	"github.com/adelmore/scour-cli/internal/ops"
)

// Columns with this few distinct values behave like codes, not measures,
// and are not worth rescaling. Matches the profiling cutoff used elsewhere.
const normalizeMinUnique = 10

// NormalizationAgent suggests a rescaling strategy per numeric column.
type NormalizationAgent struct {
	base
}

func NewNormalizationAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *NormalizationAgent {
	return &NormalizationAgent{base: newBase(adv, interp, logger, schemas.StageNormalization)}
}

func (a *NormalizationAgent) Name() schemas.Stage { return schemas.StageNormalization }

type normalizeProfile struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Skew float64 `json:"skew"`
}

// Profile lists numeric columns that look like continuous measures:
// near-categorical and id-like columns are omitted.
func (a *NormalizationAgent) Profile(f *dataset.Frame) []normalizeProfile {
	var profile []normalizeProfile
	for _, s := range numericColumns(f) {
		if s.NUnique() <= normalizeMinUnique || strings.Contains(strings.ToLower(s.Name()), "id") {
			continue
		}
		d, ok := dataset.DescribeColumn(s)
		if !ok {
			continue
		}
		profile = append(profile, normalizeProfile{
			Name: s.Name(),
			Min:  d.Min,
			Max:  d.Max,
			Skew: dataset.Skew(s),
		})
	}
	return profile
}

func (a *NormalizationAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
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

	raw, err := a.advisor.Advise(ctx, advisor.NormalizationPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		return interpret.AllSkip(entities, advisorDownReason), nil
	}
	return a.interp.ColumnSuggestions(schemas.StageNormalization, raw, entities), nil
}

// GenerateCode maps each strategy onto its scale instruction directly. The
// scaling parameters are derived from the column at apply time, so no
// advisor round trip is needed.
func (a *NormalizationAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionStandardScaler:
		return ops.Scale{Column: choice.Entity, Method: ops.ScaleStandard}.String(), nil
	case schemas.ActionMinMaxScaler:
		return ops.Scale{Column: choice.Entity, Method: ops.ScaleMinMax}.String(), nil
	case schemas.ActionLogTransform:
		return ops.Scale{Column: choice.Entity, Method: ops.ScaleLog}.String(), nil
	}
	return "", fmt.Errorf("normalization stage cannot perform action %q", choice.Action)
}
