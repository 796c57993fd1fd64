// File: internal/agent/root.go
package agent

import (
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
	"github.com/adelmore/scour-cli/internal/interpret"
)

// Root owns one agent per stage and the fixed cleaning plan. Agents are
// stateless with respect to the data: the frame is passed per call, so the
// session can swap frames between stages without rebuilding agents.
type Root struct {
	agents map[schemas.Stage]StageAgent
	issue  *GeneralIssueAgent
}

// NewRoot wires every stage agent over a shared advisor and interpreter.
func NewRoot(adv Advisor, cfg config.SessionConfig, logger *zap.Logger) *Root {
	interp := interpret.New(logger)
	issue := NewGeneralIssueAgent(adv, interp, logger)

	agents := []StageAgent{
		NewDataTypesAgent(adv, interp, logger),
		NewMissingValuesAgent(adv, interp, logger),
		NewDuplicatesAgent(adv, interp, logger),
		NewOutliersAgent(adv, interp, logger),
		NewValueStandardizationAgent(adv, interp, logger, cfg.MaxUniqueValues),
		NewNormalizationAgent(adv, interp, logger),
		NewFeatureGenerationAgent(adv, interp, logger),
		NewValidationAgent(adv, interp, logger),
		issue,
	}

	byStage := make(map[schemas.Stage]StageAgent, len(agents))
	for _, a := range agents {
		byStage[a.Name()] = a
	}
	return &Root{agents: byStage, issue: issue}
}

// AgentFor returns the agent owning the given stage.
func (r *Root) AgentFor(stage schemas.Stage) (StageAgent, bool) {
	a, ok := r.agents[stage]
	return a, ok
}

// GeneralIssue returns the out-of-plan fix agent.
func (r *Root) GeneralIssue() *GeneralIssueAgent { return r.issue }

// Plan returns the fixed stage order with its human-facing rationale.
func Plan() []schemas.PlanStep {
	return []schemas.PlanStep{
		{Stage: schemas.StageDataTypes, Reason: "Analyze and fix column data types."},
		{Stage: schemas.StageMissingValues, Reason: "Find and handle missing values."},
		{Stage: schemas.StageDuplicates, Reason: "Find and remove duplicate rows."},
		{Stage: schemas.StageOutliers, Reason: "Identify and treat outlier values."},
		{Stage: schemas.StageValueStandardization, Reason: "Standardize inconsistent categorical values."},
		{Stage: schemas.StageNormalization, Reason: "Normalize numeric columns for modeling."},
		{Stage: schemas.StageFeatureGeneration, Reason: "Generate new features from existing data."},
		{Stage: schemas.StageValidation, Reason: "Perform a final validation of the data quality."},
	}
}
