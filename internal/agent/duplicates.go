// File: internal/agent/duplicates.go
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

// DuplicatesAgent decides whether to drop fully duplicated rows. It is the
// one dataset-level agent in the ordered plan: the profile is a single
// duplicate count, not a per-column listing.
type DuplicatesAgent struct {
	base
}

func NewDuplicatesAgent(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger) *DuplicatesAgent {
	return &DuplicatesAgent{base: newBase(adv, interp, logger, schemas.StageDuplicates)}
}

func (a *DuplicatesAgent) Name() schemas.Stage { return schemas.StageDuplicates }

type duplicateProfile struct {
	DuplicateRows int `json:"duplicate_rows"`
	TotalRows     int `json:"total_rows"`
}

func (a *DuplicatesAgent) Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error) {
	dupes := f.DuplicateCount()
	if dupes == 0 {
		return nil, nil
	}

	profile := duplicateProfile{DuplicateRows: dupes, TotalRows: f.NumRows()}
	raw, err := a.advisor.Advise(ctx, advisor.DuplicatesPrompt, profile)
	if err != nil {
		return []schemas.Suggestion{{
			Entity: interpret.DatasetEntity,
			Action: schemas.ActionSkip,
			Reason: advisorDownReason,
		}}, nil
	}
	return []schemas.Suggestion{a.interp.DuplicateSuggestion(raw)}, nil
}

func (a *DuplicatesAgent) GenerateCode(_ context.Context, _ *dataset.Frame, choice schemas.Choice) (string, error) {
	switch choice.Action {
	case schemas.ActionSkip, "":
		return noActionCode, nil
	case schemas.ActionDropDuplicates:
		return ops.DropDuplicates{}.String(), nil
	}
	return "", fmt.Errorf("duplicates stage cannot perform action %q", choice.Action)
}
