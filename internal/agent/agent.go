// File: internal/agent/agent.go
//
// Package agent holds the specialized cleaning agents, one per stage of the
// plan. Every agent follows the same shape: profile the frame, ask the
// advisor for suggestions, interpret the response, and later turn the user's
// chosen actions into cleaning instructions. Profiling is deterministic and
// local; only the suggestion and code generation round trips touch the
// advisor.
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

// Advisor is the advice boundary the agents depend on. Satisfied by
// advisor.Gateway; tests substitute canned responses.
type Advisor interface {
	Advise(ctx context.Context, systemPrompt string, payload interface{}) (string, error)
}

// StageAgent is one specialized cleaning agent.
type StageAgent interface {
	// Name reports the stage this agent owns.
	Name() schemas.Stage
	// Suggest profiles the frame and returns one suggestion per profiled
	// entity. An empty profile short-circuits to no suggestions and no
	// advisor call. Advisor failures degrade to all-skip, never to an error.
	Suggest(ctx context.Context, f *dataset.Frame) ([]schemas.Suggestion, error)
	// GenerateCode turns a finalized choice into a single cleaning
	// instruction. Skip choices yield noop() without touching the advisor.
	GenerateCode(ctx context.Context, f *dataset.Frame, choice schemas.Choice) (string, error)
}

// base carries the collaborators every agent shares.
type base struct {
	advisor Advisor
	interp  *interpret.Interpreter
	logger  *zap.Logger
}

func newBase(adv Advisor, interp *interpret.Interpreter, logger *zap.Logger, stage schemas.Stage) base {
	return base{advisor: adv, interp: interp, logger: logger.Named("agent").With(zap.String("stage", string(stage)))}
}

const noActionCode = "noop()"

// advisorDownReason annotates the all-skip fallback when no advice could be
// obtained for a stage.
const advisorDownReason = "Advisor was unreachable; defaulting to skip."

// codeGenRequest is the payload sent alongside the instruction generation
// prompt when an agent delegates code generation to the advisor.
type codeGenRequest struct {
	Column string      `json:"column"`
	Action string      `json:"action"`
	Reason string      `json:"reason,omitempty"`
	Stats  interface{} `json:"stats,omitempty"`
}

// generateInstruction asks the advisor for one instruction and verifies it
// parses before handing it back. A response that does not parse is an error
// the apply step records against the entity.
func (b base) generateInstruction(ctx context.Context, req codeGenRequest) (string, error) {
	raw, err := b.advisor.Advise(ctx, advisor.CodeGenPrompt, req)
	if err != nil {
		return "", err
	}
	code := interpret.Instruction(raw)
	if _, err := ops.Parse(code); err != nil {
		b.logger.Warn("Generated instruction did not parse",
			zap.String("code", code), zap.Error(err))
		return "", fmt.Errorf("generated instruction %q: %w", code, err)
	}
	return code, nil
}

// entitiesOf lifts a profile's names and dtypes into interpreter entities.
func entitiesOf(names, dtypes []string) []interpret.Entity {
	out := make([]interpret.Entity, len(names))
	for i, n := range names {
		e := interpret.Entity{Name: n}
		if i < len(dtypes) {
			e.Dtype = dtypes[i]
		}
		out[i] = e
	}
	return out
}

// numericColumns returns the frame's numeric columns in order.
func numericColumns(f *dataset.Frame) []*dataset.Series {
	var out []*dataset.Series
	for _, name := range f.Columns() {
		if s, ok := f.Column(name); ok && s.IsNumeric() {
			out = append(out, s)
		}
	}
	return out
}
