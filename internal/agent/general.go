// File: internal/agent/general.go
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

// GeneralIssueAgent handles a free-text issue description outside the
// ordered plan: one round trip produces a fix description plus the
// instruction that implements it. There is no profiling phase.
type GeneralIssueAgent struct {
	base
}

func NewGeneralIssueAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *GeneralIssueAgent {
	return &GeneralIssueAgent{base: newBase(adv, interp, logger, schemas.StageGeneralIssue)}
}

func (a *GeneralIssueAgent) Name() schemas.Stage { return schemas.StageGeneralIssue }

// Suggest is not part of this agent's flow; issues arrive as descriptions,
// not profiles.
func (a *GeneralIssueAgent) Suggest(context.Context, *dataset.Frame) ([]schemas.Suggestion, error) {
	return nil, fmt.Errorf("general issue agent needs an issue description; use SuggestFix")
}

type issuePayload struct {
	Issue   string           `json:"issue"`
	Columns []featureProfile `json:"columns"`
}

// SuggestFix asks for a single fix for the described issue. The returned
// suggestion carries both the human-readable fix and the instruction; a bad
// or unparseable response degrades to a noop fix.
func (a *GeneralIssueAgent) SuggestFix(ctx context.Context, f *dataset.Frame, issue string) (schemas.Suggestion, error) {
	issue = strings.TrimSpace(issue)
	if issue == "" {
		return schemas.Suggestion{}, fmt.Errorf("issue description is empty")
	}

	payload := issuePayload{Issue: issue}
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		payload.Columns = append(payload.Columns, featureProfile{Name: name, Dtype: string(s.Kind())})
	}

	raw, err := a.advisor.Advise(ctx, advisor.GeneralIssuePrompt, payload)
	if err != nil {
		return schemas.Suggestion{}, err
	}

	suggestion := a.interp.GeneralFix(raw)
	if _, err := ops.Parse(suggestion.Params.Code); err != nil {
		a.logger.Warn("Suggested fix instruction did not parse",
			zap.String("code", suggestion.Params.Code), zap.Error(err))
		suggestion.Params.Fix = "Suggested fix was not usable."
		suggestion.Params.Code = noActionCode
		suggestion.Reason = suggestion.Params.Fix
	}
	return suggestion, nil
}

// GenerateCode returns the instruction already attached to the choice.
func (a *GeneralIssueAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	if choice.Action == schemas.ActionSkip || choice.Action == "" {
		return noActionCode, nil
	}
	if choice.Action != schemas.ActionApplyFix {
		return "", fmt.Errorf("general issue stage cannot perform action %q", choice.Action)
	}
	code := strings.TrimSpace(choice.Params.Code)
	if code == "" {
		return noActionCode, nil
	}
	return code, nil
}
