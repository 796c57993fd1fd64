// File: internal/interpret/interpret.go
//
// Package interpret turns raw advice text into validated suggestions. The
// advisor's output is untrusted: it may be fenced in markdown, wrapped in
// prose, truncated, or name actions outside the stage vocabulary. Whatever
// comes back, the interpreter produces exactly one suggestion per profiled
// entity so the review flow never stalls on a bad response.
package interpret

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
)

// Entity is one profiled unit a stage asked advice about, usually a column.
type Entity struct {
	Name  string
	Dtype string
}

// DatasetEntity names whole-dataset suggestions (duplicates, general fixes).
const DatasetEntity = "dataset"

const fallbackReason = "Agent failed to generate a valid suggestion due to an internal error."

// Interpreter validates advice responses against the per-stage action
// vocabulary.
type Interpreter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Interpreter {
	return &Interpreter{logger: logger.Named("interpreter")}
}

// rawColumn is the loosely-typed shape of one per-column advice record. The
// three suggested_* keys cover the vocabulary differences between stages.
type rawColumn struct {
	Name              string            `json:"name"`
	SuggestedDtype    string            `json:"suggested_dtype"`
	SuggestedAction   string            `json:"suggested_action"`
	SuggestedStrategy string            `json:"suggested_strategy"`
	ConstantValue     interface{}       `json:"constant_value"`
	Reason            string            `json:"reason"`
	Mappings          []schemas.Mapping `json:"mappings"`
}

type columnsEnvelope struct {
	Columns []rawColumn `json:"columns"`
}

// stageActions is the accepted vocabulary per column-oriented stage.
var stageActions = map[schemas.Stage]map[schemas.Action]bool{
	schemas.StageDataTypes: {
		schemas.ActionCastInt: true, schemas.ActionCastFloat: true,
		schemas.ActionCastDatetime: true, schemas.ActionCastCategory: true,
		schemas.ActionCastString: true,
	},
	schemas.StageMissingValues: {
		schemas.ActionDropColumn: true, schemas.ActionDropRows: true,
		schemas.ActionFillMean: true, schemas.ActionFillMedian: true,
		schemas.ActionFillMode: true, schemas.ActionFillConstant: true,
	},
	schemas.StageOutliers: {
		schemas.ActionClipToBounds: true, schemas.ActionWinsorize: true,
		schemas.ActionRemoveOutliers: true, schemas.ActionFlagOutliers: true,
	},
	schemas.StageValueStandardization: {
		schemas.ActionStandardizeValues: true,
	},
	schemas.StageNormalization: {
		schemas.ActionStandardScaler: true, schemas.ActionMinMaxScaler: true,
		schemas.ActionLogTransform: true,
	},
}

// ColumnSuggestions interprets a per-column advice response. The result
// always has exactly one suggestion per entity, in entity order: unparseable
// responses, missing columns and out-of-vocabulary actions all degrade to
// skip for the affected entities.
func (it *Interpreter) ColumnSuggestions(stage schemas.Stage, raw string, entities []Entity) []schemas.Suggestion {
	var envelope columnsEnvelope
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil {
		it.logger.Warn("Could not interpret advice response",
			zap.String("stage", string(stage)), zap.Error(err))
		return AllSkip(entities, fallbackReason)
	}

	// Unnamed records inherit the profiled column at the same position.
	for i := range envelope.Columns {
		if envelope.Columns[i].Name == "" && i < len(entities) {
			envelope.Columns[i].Name = entities[i].Name
		}
	}

	byName := make(map[string]rawColumn, len(envelope.Columns))
	for _, rc := range envelope.Columns {
		if _, seen := byName[rc.Name]; !seen {
			byName[rc.Name] = rc
		}
	}

	out := make([]schemas.Suggestion, len(entities))
	for i, e := range entities {
		rc, ok := byName[e.Name]
		if !ok {
			out[i] = skipSuggestion(e, "No suggestion returned for this column.")
			continue
		}
		out[i] = it.toSuggestion(stage, rc, e)
	}
	return out
}

func (it *Interpreter) toSuggestion(stage schemas.Stage, rc rawColumn, e Entity) schemas.Suggestion {
	action := normalizeAction(stage, rc)
	reason := rc.Reason
	if reason == "" {
		reason = "No reason provided."
	}

	if action == schemas.ActionSkip {
		return schemas.Suggestion{Entity: e.Name, Action: schemas.ActionSkip, Reason: reason, Dtype: e.Dtype}
	}
	if !stageActions[stage][action] {
		it.logger.Warn("Advice named an out-of-vocabulary action",
			zap.String("stage", string(stage)), zap.String("column", e.Name),
			zap.String("action", string(action)))
		return skipSuggestion(e, fmt.Sprintf("Unsupported action %q suggested.", action))
	}

	s := schemas.Suggestion{Entity: e.Name, Action: action, Reason: reason, Dtype: e.Dtype}
	switch action {
	case schemas.ActionFillConstant:
		s.Params.ConstantValue = stringifyConstant(rc.ConstantValue)
	case schemas.ActionStandardizeValues:
		if len(rc.Mappings) == 0 {
			return skipSuggestion(e, "Standardization suggested without mappings.")
		}
		s.Params.Mappings = rc.Mappings
	}
	return s
}

// normalizeAction picks the populated suggested_* key and folds dtype
// aliases (datetime64[ns], str) onto the canonical vocabulary.
func normalizeAction(stage schemas.Stage, rc rawColumn) schemas.Action {
	var v string
	switch stage {
	case schemas.StageDataTypes:
		v = rc.SuggestedDtype
	case schemas.StageNormalization:
		v = rc.SuggestedStrategy
	default:
		v = rc.SuggestedAction
	}
	v = strings.TrimSpace(v)

	switch strings.ToLower(v) {
	case "", "skip":
		return schemas.ActionSkip
	}
	if stage == schemas.StageDataTypes {
		switch strings.ToLower(v) {
		case "datetime64[ns]", "datetime", "datetime64":
			return schemas.ActionCastDatetime
		case "str", "object", "string":
			return schemas.ActionCastString
		}
	}
	return schemas.Action(v)
}

type duplicateEnvelope struct {
	Action          *rawColumn `json:"action"`
	SuggestedAction string     `json:"suggested_action"`
	Reason          string     `json:"reason"`
}

// DuplicateSuggestion interprets the single dataset-level duplicates
// response. Both envelope shapes seen in practice are accepted: the action
// nested under an "action" key, or the fields at the top level.
func (it *Interpreter) DuplicateSuggestion(raw string) schemas.Suggestion {
	var envelope duplicateEnvelope
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil {
		it.logger.Warn("Could not interpret duplicates response", zap.Error(err))
		return schemas.Suggestion{Entity: DatasetEntity, Action: schemas.ActionSkip, Reason: fallbackReason}
	}

	action, reason := envelope.SuggestedAction, envelope.Reason
	if envelope.Action != nil {
		action, reason = envelope.Action.SuggestedAction, envelope.Action.Reason
	}
	if reason == "" {
		reason = "No reason provided."
	}
	if schemas.Action(action) != schemas.ActionDropDuplicates {
		return schemas.Suggestion{Entity: DatasetEntity, Action: schemas.ActionSkip, Reason: reason}
	}
	return schemas.Suggestion{Entity: DatasetEntity, Action: schemas.ActionDropDuplicates, Reason: reason}
}

type rawFeature struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
	Reason  string `json:"reason"`
}

type featuresEnvelope struct {
	Features []rawFeature `json:"features"`
}

// FeatureSuggestions interprets a feature generation response. Features are
// advisor-invented entities, so there is no profile to align against; an
// unparseable response simply yields no candidates.
func (it *Interpreter) FeatureSuggestions(raw string) []schemas.Suggestion {
	var envelope featuresEnvelope
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil {
		it.logger.Warn("Could not interpret feature generation response", zap.Error(err))
		return nil
	}

	out := make([]schemas.Suggestion, 0, len(envelope.Features))
	for _, f := range envelope.Features {
		if f.Name == "" {
			f.Name = "unnamed_feature"
		}
		if f.Reason == "" {
			f.Reason = "No reason provided."
		}
		if strings.TrimSpace(f.Formula) == "" {
			out = append(out, schemas.Suggestion{
				Entity: f.Name, Action: schemas.ActionSkip,
				Reason: "No formula provided for this feature.",
			})
			continue
		}
		out = append(out, schemas.Suggestion{
			Entity: f.Name,
			Action: schemas.ActionDeriveFeature,
			Reason: f.Reason,
			Params: schemas.Params{Formula: f.Formula},
		})
	}
	return out
}

type rawIssue struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type validationEnvelope struct {
	Status string     `json:"status"`
	Issues []rawIssue `json:"issues"`
}

// Validation interprets the final quality report. Issues come back as
// apply_fix suggestions so each can be handed to the general issue flow.
func (it *Interpreter) Validation(raw string) (schemas.Action, []schemas.Suggestion, error) {
	var envelope validationEnvelope
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil {
		it.logger.Warn("Could not interpret validation response", zap.Error(err))
		return "", nil, fmt.Errorf("interpret validation response: %w", err)
	}

	issues := make([]schemas.Suggestion, 0, len(envelope.Issues))
	for _, issue := range envelope.Issues {
		if strings.TrimSpace(issue.Description) == "" {
			continue
		}
		issues = append(issues, schemas.Suggestion{
			Entity:   DatasetEntity,
			Action:   schemas.ActionApplyFix,
			Reason:   issue.Description,
			Severity: issue.Severity,
		})
	}

	status := schemas.ActionValidationCompleted
	if envelope.Status == string(schemas.ActionValidationIssues) || len(issues) > 0 {
		status = schemas.ActionValidationIssues
	}
	return status, issues, nil
}

type fixEnvelope struct {
	Fix  string `json:"fix"`
	Code string `json:"code"`
}

// GeneralFix interprets a free-form fix response into a single apply_fix
// suggestion carrying the instruction to run.
func (it *Interpreter) GeneralFix(raw string) schemas.Suggestion {
	var envelope fixEnvelope
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil || strings.TrimSpace(envelope.Code) == "" {
		it.logger.Warn("Could not interpret general fix response", zap.Error(err))
		return schemas.Suggestion{
			Entity: DatasetEntity,
			Action: schemas.ActionApplyFix,
			Reason: "Parsing Error",
			Params: schemas.Params{Fix: "Parsing Error", Code: "noop()"},
		}
	}
	if envelope.Fix == "" {
		envelope.Fix = "No description provided."
	}
	return schemas.Suggestion{
		Entity: DatasetEntity,
		Action: schemas.ActionApplyFix,
		Reason: envelope.Fix,
		Params: schemas.Params{Fix: envelope.Fix, Code: strings.TrimSpace(envelope.Code)},
	}
}

// Instruction strips markdown fences from a generated cleaning instruction
// and returns the first non-empty line. A fence language tag left behind by
// extraction is skipped: an instruction always carries parentheses, so a
// bare leading word cannot be one.
func Instruction(raw string) string {
	raw = strings.TrimSpace(raw)
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		raw = strings.TrimSpace(matches[1])
	}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return raw
	}
	if len(lines) > 1 && langTagRegex.MatchString(lines[0]) {
		return lines[1]
	}
	return lines[0]
}

// AllSkip is the degraded result when advice is unavailable or unusable:
// one skip suggestion per entity, preserving order and dtype.
func AllSkip(entities []Entity, reason string) []schemas.Suggestion {
	out := make([]schemas.Suggestion, len(entities))
	for i, e := range entities {
		out[i] = skipSuggestion(e, reason)
	}
	return out
}

func skipSuggestion(e Entity, reason string) schemas.Suggestion {
	return schemas.Suggestion{Entity: e.Name, Action: schemas.ActionSkip, Reason: reason, Dtype: e.Dtype}
}

func stringifyConstant(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprintf("%v", c)
	}
}
