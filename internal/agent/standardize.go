// File: internal/agent/standardize.go
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

// ValueStandardizationAgent finds inconsistent spellings of the same
// categorical value and suggests a canonical mapping.
type ValueStandardizationAgent struct {
	base
	maxUniqueValues int
}

func NewValueStandardizationAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger, maxUniqueValues int) *ValueStandardizationAgent {
	if maxUniqueValues <= 0 {
		maxUniqueValues = 30
	}
	return &ValueStandardizationAgent{
		base:            newBase(adv, interp, logger, schemas.StageValueStandardization),
		maxUniqueValues: maxUniqueValues,
	}
}

func (a *ValueStandardizationAgent) Name() schemas.Stage { return schemas.StageValueStandardization }

type standardizeProfile struct {
	Name         string   `json:"name"`
	UniqueValues []string `json:"unique_values"`
	NumUnique    int      `json:"num_unique"`
}

// Profile collects the distinct values of each textual column, capped to
// keep the advice payload bounded. Single-valued columns are omitted.
func (a *ValueStandardizationAgent) Profile(f *dataset.Frame) []standardizeProfile {
	var profile []standardizeProfile
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		if !s.IsTextual() {
			continue
		}
		n := s.NUnique()
		if n <= 1 {
			continue
		}
		profile = append(profile, standardizeProfile{
			Name:         name,
			UniqueValues: s.Uniques(a.maxUniqueValues),
			NumUnique:    n,
		})
	}
	return profile
}

func (a *ValueStandardizationAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
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

	raw, err := a.advisor.Advise(ctx, advisor.ValueStandardizationPrompt, map[string]interface{}{"columns": profile})
	if err != nil {
		return interpret.AllSkip(entities, advisorDownReason), nil
	}
	return a.interp.ColumnSuggestions(schemas.StageValueStandardization, raw, entities), nil
}

// GenerateCode renders the mapping pairs straight into a map_values
// instruction; the mappings themselves came from the suggestion round trip.
func (a *ValueStandardizationAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionStandardizeValues:
	default:
		return "", fmt.Errorf("value standardization stage cannot perform action %q", choice.Action)
	}
	if len(choice.Params.Mappings) == 0 {
		return "", fmt.Errorf("standardize_values for %q has no mappings", choice.Entity)
	}

	mappings := make([]ops.Mapping, len(choice.Params.Mappings))
	for i, m := range choice.Params.Mappings {
		mappings[i] = ops.Mapping{From: m.From, To: m.To}
	}
	return ops.MapValues{Column: choice.Entity, Mappings: mappings}.String(), nil
}
