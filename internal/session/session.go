// File: internal/session/session.go
//
// Package session drives one interactive cleaning run: a frame moves through
// the fixed stage plan, each stage rendering suggestions, collecting the
// user's choices, and applying them before advancing. The controller is the
// only writer of the working frame; applies happen on a clone and the
// reference is swapped when the stage finishes.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/agent"
	"github.com/adelmore/scour-cli/internal/config"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/ops"
)

// State is the controller's lifecycle position.
type State string

const (
	// StateAwaitingUpload means no dataset has been loaded yet, or the last
	// upload failed.
	StateAwaitingUpload State = "awaiting_upload"
	// StateStageActive means a stage of the plan is under review.
	StateStageActive State = "stage_active"
	// StateComplete means every stage has been applied.
	StateComplete State = "complete"
)

// StageView is the render product for the active stage: everything the UI
// needs to draw the review form.
type StageView struct {
	Stage       schemas.Stage
	Reason      string
	Index       int
	Total       int
	Suggestions []schemas.Suggestion
	// Choices holds the current decision per entity, seeded from the
	// suggestions and updated as the user edits the form.
	Choices map[string]schemas.Choice
}

// Controller is the session state machine. Methods are safe for the
// render-loop pattern of a single mutating goroutine plus concurrent
// readers.
type Controller struct {
	mu     sync.RWMutex
	root   *agent.Root
	cfg    config.SessionConfig
	upload config.UploadConfig
	logger *zap.Logger

	state      State
	sourcePath string
	frame      *dataset.Frame
	plan       []schemas.PlanStep
	stageIdx   int

	// suggestions is the last rendered suggestion list per stage; it fixes
	// the entity order for choice seeding and apply.
	suggestions map[schemas.Stage][]schemas.Suggestion
	// choices accumulates per stage, keyed by entity. Entries persist until
	// a re-render overwrites them, so edits survive Previous/Next hops.
	choices map[schemas.Stage]map[string]schemas.Choice
	// logs holds one slot per stage, overwritten on re-apply.
	logs map[schemas.Stage]*schemas.StageLog
}

func NewController(root *agent.Root, cfg config.SessionConfig, upload config.UploadConfig, logger *zap.Logger) *Controller {
	return &Controller{
		root:        root,
		cfg:         cfg,
		upload:      upload,
		logger:      logger.Named("session"),
		state:       StateAwaitingUpload,
		plan:        agent.Plan(),
		suggestions: make(map[schemas.Stage][]schemas.Suggestion),
		choices:     make(map[schemas.Stage]map[string]schemas.Choice),
		logs:        make(map[schemas.Stage]*schemas.StageLog),
	}
}

// Upload loads a delimited file and resets the session around it. A parse
// failure leaves the controller with no session at all.
func (c *Controller) Upload(path string) error {
	var delim rune
	if c.upload.Delimiter != "" {
		delim = []rune(c.upload.Delimiter)[0]
	}
	f, err := dataset.Load(path, dataset.LoadOptions{
		Delimiter:         delim,
		TypeInferenceRows: c.upload.TypeInferenceRows,
	})
	if err != nil {
		c.mu.Lock()
		c.state = StateAwaitingUpload
		c.frame = nil
		c.mu.Unlock()
		return fmt.Errorf("upload %s: %w", path, err)
	}
	c.Start(f)
	c.mu.Lock()
	c.sourcePath = path
	c.mu.Unlock()
	c.logger.Info("Dataset uploaded",
		zap.String("path", path),
		zap.Int("rows", f.NumRows()), zap.Int("columns", f.NumCols()))
	return nil
}

// Start resets the session around an already-loaded frame.
func (c *Controller) Start(f *dataset.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = f
	c.sourcePath = ""
	c.stageIdx = 0
	c.state = StateStageActive
	c.suggestions = make(map[schemas.Stage][]schemas.Suggestion)
	c.choices = make(map[schemas.Stage]map[string]schemas.Choice)
	c.logs = make(map[schemas.Stage]*schemas.StageLog)
}

// Render profiles the active stage and seeds the choice store from its
// suggestions. Each render overwrites the choices of the entities it
// suggests for; entities absent from this render keep their old entries.
func (c *Controller) Render(ctx context.Context) (*StageView, error) {
	c.mu.RLock()
	if c.state != StateStageActive {
		c.mu.RUnlock()
		return nil, fmt.Errorf("no active stage (state %s)", c.state)
	}
	step := c.plan[c.stageIdx]
	frame := c.frame
	idx := c.stageIdx
	c.mu.RUnlock()

	a, ok := c.root.AgentFor(step.Stage)
	if !ok {
		return nil, fmt.Errorf("no agent for stage %q", step.Stage)
	}
	suggestions, err := a.Suggest(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("suggest for stage %q: %w", step.Stage, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestions[step.Stage] = suggestions
	store := c.choices[step.Stage]
	if store == nil {
		store = make(map[string]schemas.Choice)
		c.choices[step.Stage] = store
	}
	for _, s := range suggestions {
		store[s.Entity] = schemas.Choice{
			Entity: s.Entity,
			Stage:  step.Stage,
			Action: s.Action,
			Reason: s.Reason,
			Params: s.Params,
		}
	}

	view := &StageView{
		Stage:       step.Stage,
		Reason:      step.Reason,
		Index:       idx,
		Total:       len(c.plan),
		Suggestions: suggestions,
		Choices:     copyChoices(store),
	}
	return view, nil
}

// SetChoice records the user's decision for one entity of the active stage.
func (c *Controller) SetChoice(choice schemas.Choice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStageActive {
		return fmt.Errorf("no active stage (state %s)", c.state)
	}
	current := c.plan[c.stageIdx].Stage
	if choice.Stage != current {
		return fmt.Errorf("choice targets stage %q but %q is active", choice.Stage, current)
	}
	store := c.choices[current]
	if store == nil {
		store = make(map[string]schemas.Choice)
		c.choices[current] = store
	}
	store[choice.Entity] = choice
	return nil
}

// Previous steps back one stage, staying put when already at the first.
// Choices and logs are untouched: nothing is re-applied or undone by
// navigation alone.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateComplete:
		c.stageIdx = len(c.plan) - 1
		c.state = StateStageActive
		return nil
	case StateStageActive:
		if c.stageIdx > 0 {
			c.stageIdx--
		}
		return nil
	}
	return fmt.Errorf("no active stage (state %s)", c.state)
}

// ApplyAndNext executes the active stage's choices and advances the plan.
// Execution happens entity by entity on a cloned frame: one entity's failure
// is logged and does not stop the others, and the working frame is only
// swapped once the stage finishes. Re-applying a stage overwrites its log
// slot, so backtracking never duplicates history.
func (c *Controller) ApplyAndNext(ctx context.Context) (*schemas.StageLog, error) {
	c.mu.RLock()
	if c.state != StateStageActive {
		c.mu.RUnlock()
		return nil, fmt.Errorf("no active stage (state %s)", c.state)
	}
	step := c.plan[c.stageIdx]
	frame := c.frame
	suggestions := c.suggestions[step.Stage]
	store := copyChoices(c.choices[step.Stage])
	c.mu.RUnlock()

	a, ok := c.root.AgentFor(step.Stage)
	if !ok {
		return nil, fmt.Errorf("no agent for stage %q", step.Stage)
	}

	working := frame.Clone()
	log := &schemas.StageLog{Stage: step.Stage}

	for _, choice := range orderedChoices(suggestions, store) {
		entry := c.applyChoice(ctx, a, working, choice)
		log.Entries = append(log.Entries, entry)
	}

	c.mu.Lock()
	c.frame = working
	c.logs[step.Stage] = log
	if c.stageIdx == len(c.plan)-1 {
		c.state = StateComplete
	} else {
		c.stageIdx++
	}
	c.mu.Unlock()

	c.logger.Info("Stage applied",
		zap.String("stage", string(step.Stage)),
		zap.Int("entries", len(log.Entries)),
		zap.Int("rows", working.NumRows()), zap.Int("columns", working.NumCols()))
	return log, nil
}

// applyChoice generates and executes the instruction for one entity.
func (c *Controller) applyChoice(ctx context.Context, a agent.StageAgent, working *dataset.Frame, choice schemas.Choice) schemas.StageLogEntry {
	entry := schemas.StageLogEntry{
		ID:        uuid.NewString(),
		Entity:    choice.Entity,
		Choice:    choice,
		Timestamp: time.Now().UTC(),
	}

	if choice.Action == schemas.ActionSkip || choice.Action == "" ||
		choice.Action == schemas.ActionValidationCompleted {
		entry.Status = schemas.StatusSkipped
		return entry
	}

	code, err := a.GenerateCode(ctx, working, choice)
	if err != nil {
		entry.Status = schemas.StatusError
		entry.Error = err.Error()
		c.logger.Warn("Instruction generation failed",
			zap.String("entity", choice.Entity), zap.Error(err))
		return entry
	}
	entry.Code = code

	op, err := ops.Parse(code)
	if err != nil {
		entry.Status = schemas.StatusError
		entry.Error = err.Error()
		return entry
	}
	if _, isNoop := op.(ops.NoOp); isNoop {
		entry.Status = schemas.StatusSkipped
		return entry
	}

	if err := op.Apply(working); err != nil {
		entry.Status = schemas.StatusError
		entry.Error = err.Error()
		c.logger.Warn("Instruction failed",
			zap.String("entity", choice.Entity), zap.String("code", code), zap.Error(err))
		return entry
	}
	entry.Status = schemas.StatusSuccess
	return entry
}

// FixIssue runs the out-of-plan general issue flow: describe, fetch one fix
// suggestion, and return it for confirmation. ApplyFix executes it.
func (c *Controller) FixIssue(ctx context.Context, description string) (schemas.Suggestion, error) {
	c.mu.RLock()
	frame := c.frame
	c.mu.RUnlock()
	if frame == nil {
		return schemas.Suggestion{}, fmt.Errorf("no dataset loaded")
	}
	return c.root.GeneralIssue().SuggestFix(ctx, frame, description)
}

// ApplyFix executes a confirmed general issue fix against the working frame.
// The entry lands in the General Issue log slot, overwriting earlier fixes.
func (c *Controller) ApplyFix(ctx context.Context, suggestion schemas.Suggestion) (*schemas.StageLogEntry, error) {
	c.mu.RLock()
	frame := c.frame
	c.mu.RUnlock()
	if frame == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}

	choice := schemas.Choice{
		Entity: suggestion.Entity,
		Stage:  schemas.StageGeneralIssue,
		Action: suggestion.Action,
		Reason: suggestion.Reason,
		Params: suggestion.Params,
	}

	working := frame.Clone()
	entry := c.applyChoice(ctx, c.root.GeneralIssue(), working, choice)

	c.mu.Lock()
	if entry.Status != schemas.StatusError {
		c.frame = working
	}
	c.logs[schemas.StageGeneralIssue] = &schemas.StageLog{
		Stage:   schemas.StageGeneralIssue,
		Entries: []schemas.StageLogEntry{entry},
	}
	c.mu.Unlock()
	return &entry, nil
}

// State reports the lifecycle position.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Progress reports the active step and plan size. For a complete session the
// index equals the plan length.
func (c *Controller) Progress() (idx int, total int, step schemas.PlanStep) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == StateComplete {
		return len(c.plan), len(c.plan), schemas.PlanStep{}
	}
	return c.stageIdx, len(c.plan), c.plan[c.stageIdx]
}

// Plan returns the fixed stage order.
func (c *Controller) Plan() []schemas.PlanStep {
	return append([]schemas.PlanStep(nil), c.plan...)
}

// Logs returns the per-stage logs in plan order, with the General Issue slot
// last when present.
func (c *Controller) Logs() []schemas.StageLog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []schemas.StageLog
	for _, step := range c.plan {
		if log := c.logs[step.Stage]; log != nil {
			out = append(out, *log)
		}
	}
	if log := c.logs[schemas.StageGeneralIssue]; log != nil {
		out = append(out, *log)
	}
	return out
}

// Frame returns the current working frame.
func (c *Controller) Frame() *dataset.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// Preview returns the head of the working frame for display.
func (c *Controller) Preview() [][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == nil {
		return nil
	}
	rows := c.cfg.PreviewRows
	if rows <= 0 {
		rows = 10
	}
	return c.frame.Head(rows)
}

// Save writes the working frame as CSV.
func (c *Controller) Save(path string) error {
	c.mu.RLock()
	frame := c.frame
	c.mu.RUnlock()
	if frame == nil {
		return fmt.Errorf("no dataset loaded")
	}
	return dataset.Save(path, frame)
}

func copyChoices(in map[string]schemas.Choice) map[string]schemas.Choice {
	out := make(map[string]schemas.Choice, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// orderedChoices walks the store in the last render's suggestion order, then
// any remaining entities (kept from earlier renders) in name order.
func orderedChoices(suggestions []schemas.Suggestion, store map[string]schemas.Choice) []schemas.Choice {
	var out []schemas.Choice
	seen := make(map[string]bool, len(store))
	for _, s := range suggestions {
		if choice, ok := store[s.Entity]; ok && !seen[s.Entity] {
			out = append(out, choice)
			seen[s.Entity] = true
		}
	}
	rest := make([]string, 0, len(store))
	for entity := range store {
		if !seen[entity] {
			rest = append(rest, entity)
		}
	}
	sort.Strings(rest)
	for _, entity := range rest {
		out = append(out, store[entity])
	}
	return out
}
