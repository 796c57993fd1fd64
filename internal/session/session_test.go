// File: internal/session/session_test.go
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/agent"
	"github.com/adelmore/scour-cli/internal/config"
	"github.com/adelmore/scour-cli/internal/dataset"
	"github.com/adelmore/scour-cli/internal/interpret"
)

// scriptedAdvisor answers by system prompt; stages without a script get an
// error so their agents degrade to skip.
type scriptedAdvisor struct {
	responses map[string]string
}

func (s *scriptedAdvisor) Advise(_ context.Context, systemPrompt string, _ interface{}) (string, error) {
	if r, ok := s.responses[systemPrompt]; ok {
		return r, nil
	}
	return "", errors.New("no scripted response")
}

func newTestController(t *testing.T, adv agent.Advisor) *Controller {
	t.Helper()
	logger := zaptest.NewLogger(t)
	root := agent.NewRoot(adv, config.SessionConfig{MaxUniqueValues: 30}, logger)
	return NewController(root, config.SessionConfig{PreviewRows: 5}, config.UploadConfig{}, logger)
}

func scenarioFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewFrame(
		dataset.NewFloatSeries("age", []float64{30, 0, 19, 42, 30}, []bool{false, true, false, false, false}),
		dataset.NewStringSeries("city", []string{"NY", "N.Y.", "LA", "NY", "NY"}),
	)
	require.NoError(t, err)
	return f
}

func TestControllerLifecycle(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	assert.Equal(t, StateAwaitingUpload, c.State())

	_, err := c.Render(context.Background())
	assert.ErrorContains(t, err, "no active stage")

	c.Start(scenarioFrame(t))
	assert.Equal(t, StateStageActive, c.State())

	idx, total, step := c.Progress()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 8, total)
	assert.Equal(t, schemas.StageDataTypes, step.Stage)
}

func TestFullCleaningRun(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.DataTypesPrompt: `{"columns": [
			{"name": "age", "suggested_dtype": "skip", "reason": "Already numeric."},
			{"name": "city", "suggested_dtype": "skip", "reason": "Fine as string."}
		]}`,
		advisor.MissingValuesPrompt: `{"columns": [
			{"name": "age", "suggested_action": "fillna_constant", "constant_value": 21, "reason": "Default adult age."}
		]}`,
		advisor.DuplicatesPrompt: `{"action": {"suggested_action": "drop_duplicates", "reason": "Exact copies."}}`,
		advisor.OutliersPrompt: `{"columns": [
			{"name": "age", "suggested_action": "skip", "reason": "Range is plausible."}
		]}`,
		advisor.ValueStandardizationPrompt: `{"columns": [
			{"name": "city", "suggested_action": "standardize_values",
			 "mappings": [{"from": "N.Y.", "to": "NY"}], "reason": "Same city."}
		]}`,
		advisor.FeatureGenerationPrompt: `{"features": [
			{"name": "age_doubled", "formula": "age * 2", "reason": "Demo feature."}
		]}`,
		advisor.ValidationPrompt: `{"status": "completed", "issues": []}`,
	}}

	c := newTestController(t, adv)
	c.Start(scenarioFrame(t))
	ctx := context.Background()

	for c.State() == StateStageActive {
		view, err := c.Render(ctx)
		require.NoError(t, err)
		require.Len(t, view.Choices, len(view.Suggestions))

		_, err = c.ApplyAndNext(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, StateComplete, c.State())

	f := c.Frame()
	require.NotNil(t, f)

	// Missing values: the null age cell was filled with the constant.
	age, ok := f.Column("age")
	require.True(t, ok)
	assert.Equal(t, 0, age.NullCount())

	// Duplicates: the identical fifth row was dropped.
	assert.Equal(t, 4, f.NumRows())
	assert.Equal(t, 0, f.DuplicateCount())

	// Value standardization: N.Y. folded onto NY.
	city, ok := f.Column("city")
	require.True(t, ok)
	for i := 0; i < city.Len(); i++ {
		assert.NotEqual(t, "N.Y.", city.String(i))
	}

	// Feature generation: the derived column exists with the right values.
	doubled, ok := f.Column("age_doubled")
	require.True(t, ok)
	v, has := doubled.Float(0)
	require.True(t, has)
	assert.Equal(t, 60.0, v)

	// One log slot per stage, in plan order.
	logs := c.Logs()
	require.Len(t, logs, 8)
	for i, step := range c.Plan() {
		assert.Equal(t, step.Stage, logs[i].Stage)
	}

	idx, total, _ := c.Progress()
	assert.Equal(t, total, idx)
}

func TestDropDuplicatesRowArithmetic(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.DuplicatesPrompt: `{"action": {"suggested_action": "drop_duplicates", "reason": "Exact copies."}}`,
	}}
	c := newTestController(t, adv)

	vals := make([]float64, 20)
	for i := 0; i < 17; i++ {
		vals[i] = float64(i + 1)
	}
	vals[17], vals[18], vals[19] = 1, 2, 3
	f, err := dataset.NewFrame(dataset.NewFloatSeries("id", vals, nil))
	require.NoError(t, err)
	require.Equal(t, 3, f.DuplicateCount())

	c.Start(f)
	ctx := context.Background()

	// The type stage degrades to skip and the missing-values stage has
	// nothing to fill; drive through both to reach the duplicates stage.
	for i := 0; i < 2; i++ {
		_, err := c.Render(ctx)
		require.NoError(t, err)
		_, err = c.ApplyAndNext(ctx)
		require.NoError(t, err)
	}

	view, err := c.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.StageDuplicates, view.Stage)
	require.Len(t, view.Suggestions, 1)
	assert.Equal(t, schemas.ActionDropDuplicates, view.Suggestions[0].Action)

	log, err := c.ApplyAndNext(ctx)
	require.NoError(t, err)
	require.Len(t, log.Entries, 1)
	assert.Equal(t, schemas.StatusSuccess, log.Entries[0].Status)

	assert.Equal(t, 17, c.Frame().NumRows())
	assert.Equal(t, 0, c.Frame().DuplicateCount())
}

func TestApplyIsolatesEntityFailures(t *testing.T) {
	// Both columns carry nulls; the advice for notes picks a numeric-only
	// treatment that must fail at apply time without sinking the age fill.
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.MissingValuesPrompt: `{"columns": [
			{"name": "age", "suggested_action": "fillna_median", "reason": "r"},
			{"name": "notes", "suggested_action": "fillna_mean", "reason": "r"}
		]}`,
	}}
	c := newTestController(t, adv)

	f, err := dataset.NewFrame(
		dataset.NewFloatSeries("age", []float64{10, 20, 20, 30, 0}, []bool{false, false, false, false, true}),
		dataset.NewStringSeries("notes", []string{"a", "b", "c", "d", ""}),
	)
	require.NoError(t, err)
	c.Start(f)
	ctx := context.Background()

	// Advance to the missing values stage.
	_, err = c.Render(ctx)
	require.NoError(t, err)
	_, err = c.ApplyAndNext(ctx)
	require.NoError(t, err)

	_, err = c.Render(ctx)
	require.NoError(t, err)
	log, err := c.ApplyAndNext(ctx)
	require.NoError(t, err)

	require.Len(t, log.Entries, 2)
	byEntity := map[string]schemas.StageLogEntry{}
	for _, e := range log.Entries {
		byEntity[e.Entity] = e
	}
	assert.Equal(t, schemas.StatusSuccess, byEntity["age"].Status)
	assert.Equal(t, schemas.StatusError, byEntity["notes"].Status)
	assert.NotEmpty(t, byEntity["notes"].Error)
	assert.NotEmpty(t, byEntity["age"].ID)

	// The successful fill landed even though the other entity failed.
	age, _ := c.Frame().Column("age")
	assert.Equal(t, 0, age.NullCount())
	notes, _ := c.Frame().Column("notes")
	assert.Equal(t, 1, notes.NullCount())
}

func TestSetChoiceOverridesSuggestion(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.DataTypesPrompt: `{"columns": [
			{"name": "age", "suggested_dtype": "int64", "reason": "Whole numbers."},
			{"name": "city", "suggested_dtype": "skip", "reason": "r"}
		]}`,
	}}
	c := newTestController(t, adv)

	f, err := dataset.NewFrame(
		dataset.NewFloatSeries("age", []float64{30, 19}, nil),
		dataset.NewStringSeries("city", []string{"NY", "LA"}),
	)
	require.NoError(t, err)
	c.Start(f)
	ctx := context.Background()

	_, err = c.Render(ctx)
	require.NoError(t, err)

	// The user rejects the suggested cast.
	require.NoError(t, c.SetChoice(schemas.Choice{
		Entity: "age", Stage: schemas.StageDataTypes, Action: schemas.ActionSkip,
	}))

	log, err := c.ApplyAndNext(ctx)
	require.NoError(t, err)
	for _, e := range log.Entries {
		assert.Equal(t, schemas.StatusSkipped, e.Status)
	}
	age, _ := c.Frame().Column("age")
	assert.Equal(t, dataset.KindFloat, age.Kind())
}

func TestSetChoiceRejectsInactiveStage(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	c.Start(scenarioFrame(t))

	err := c.SetChoice(schemas.Choice{
		Entity: "age", Stage: schemas.StageOutliers, Action: schemas.ActionSkip,
	})
	assert.ErrorContains(t, err, "is active")
}

func TestPreviousNavigation(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	c.Start(scenarioFrame(t))
	ctx := context.Background()

	// Stepping back from the first stage stays at the first stage.
	require.NoError(t, c.Previous())
	idx0, _, _ := c.Progress()
	assert.Equal(t, 0, idx0)

	_, err := c.Render(ctx)
	require.NoError(t, err)
	_, err = c.ApplyAndNext(ctx)
	require.NoError(t, err)

	idx, _, _ := c.Progress()
	assert.Equal(t, 1, idx)

	require.NoError(t, c.Previous())
	idx, _, step := c.Progress()
	assert.Equal(t, 0, idx)
	assert.Equal(t, schemas.StageDataTypes, step.Stage)
}

func TestPreviousFromCompleteReopensLastStage(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	c.Start(scenarioFrame(t))
	ctx := context.Background()

	for c.State() == StateStageActive {
		_, err := c.Render(ctx)
		require.NoError(t, err)
		_, err = c.ApplyAndNext(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, StateComplete, c.State())

	require.NoError(t, c.Previous())
	assert.Equal(t, StateStageActive, c.State())
	idx, total, step := c.Progress()
	assert.Equal(t, total-1, idx)
	assert.Equal(t, schemas.StageValidation, step.Stage)
}

func TestReapplyOverwritesLogSlot(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.DuplicatesPrompt: `{"action": {"suggested_action": "drop_duplicates", "reason": "r"}}`,
	}}
	c := newTestController(t, adv)
	c.Start(scenarioFrame(t))
	ctx := context.Background()

	// Walk to and through the duplicates stage.
	for i := 0; i < 3; i++ {
		_, err := c.Render(ctx)
		require.NoError(t, err)
		_, err = c.ApplyAndNext(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 4, c.Frame().NumRows())
	require.Len(t, c.Logs(), 3)

	// Step back and re-apply: dropping duplicates again is a no-op on the
	// data, and the log slot is overwritten rather than appended.
	require.NoError(t, c.Previous())
	_, err := c.Render(ctx)
	require.NoError(t, err)
	_, err = c.ApplyAndNext(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Frame().NumRows())
	logs := c.Logs()
	assert.Len(t, logs, 3)
	count := 0
	for _, l := range logs {
		if l.Stage == schemas.StageDuplicates {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRenderReseedsChoices(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.DataTypesPrompt: `{"columns": [
			{"name": "age", "suggested_dtype": "int64", "reason": "r"},
			{"name": "city", "suggested_dtype": "skip", "reason": "r"}
		]}`,
	}}
	c := newTestController(t, adv)

	f, err := dataset.NewFrame(
		dataset.NewFloatSeries("age", []float64{30, 19}, nil),
		dataset.NewStringSeries("city", []string{"NY", "LA"}),
	)
	require.NoError(t, err)
	c.Start(f)
	ctx := context.Background()

	_, err = c.Render(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetChoice(schemas.Choice{
		Entity: "age", Stage: schemas.StageDataTypes, Action: schemas.ActionCastString,
	}))

	_, err = c.ApplyAndNext(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Previous())

	// A re-render re-seeds from fresh suggestions, overwriting the edit.
	view, err := c.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionCastInt, view.Choices["age"].Action)
}

func TestFixIssueAndApplyFix(t *testing.T) {
	adv := &scriptedAdvisor{responses: map[string]string{
		advisor.GeneralIssuePrompt: `{"fix": "Drop duplicate rows.", "code": "drop_duplicates()"}`,
	}}
	c := newTestController(t, adv)
	c.Start(scenarioFrame(t))

	fix, err := c.FixIssue(context.Background(), "there are duplicate rows")
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionApplyFix, fix.Action)
	assert.Equal(t, "drop_duplicates()", fix.Params.Code)

	entry, err := c.ApplyFix(context.Background(), fix)
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusSuccess, entry.Status)
	assert.Equal(t, 4, c.Frame().NumRows())

	logs := c.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, schemas.StageGeneralIssue, logs[0].Stage)
}

func TestApplyFixKeepsFrameOnError(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	c.Start(scenarioFrame(t))
	before := c.Frame()

	entry, err := c.ApplyFix(context.Background(), schemas.Suggestion{
		Entity: interpret.DatasetEntity,
		Action: schemas.ActionApplyFix,
		Params: schemas.Params{Code: "drop_column(nothere)"},
	})
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusError, entry.Status)
	assert.Same(t, before, c.Frame(), "a failed fix must not swap the frame")
}

func TestUploadAndSave(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(src, []byte("age,city\n30,NY\n19,LA\n"), 0o644))

	c := newTestController(t, &scriptedAdvisor{})
	require.NoError(t, c.Upload(src))
	assert.Equal(t, StateStageActive, c.State())
	assert.Equal(t, 2, c.Frame().NumRows())

	preview := c.Preview()
	require.NotEmpty(t, preview)
	assert.Equal(t, []string{"age", "city"}, preview[0])

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, c.Save(out))
	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "age,city")
}

func TestUploadFailureLeavesNoSession(t *testing.T) {
	c := newTestController(t, &scriptedAdvisor{})
	err := c.Upload(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, StateAwaitingUpload, c.State())
	assert.Nil(t, c.Frame())
}
