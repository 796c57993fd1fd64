// File: api/schemas/schemas.go
package schemas

import "time"

// Stage identifies one phase of the fixed cleaning plan. Each stage is owned
// by exactly one agent implementation.
type Stage string

const (
	StageDataTypes            Stage = "Data Types"
	StageMissingValues        Stage = "Missing Values"
	StageDuplicates           Stage = "Duplicates"
	StageOutliers             Stage = "Outliers"
	StageValueStandardization Stage = "Value Standardization"
	StageNormalization        Stage = "Normalization"
	StageFeatureGeneration    Stage = "Feature Generation"
	StageValidation           Stage = "Validation"

	// StageGeneralIssue is the free-form, single-shot fix stage. It is not part
	// of the ordered plan; it is reached through the `issue` command.
	StageGeneralIssue Stage = "General Issue"
)

// Action is the enumerated vocabulary of cleaning decisions. Each stage
// accepts only a subset; see the per-agent Validate methods.
type Action string

const (
	ActionSkip Action = "skip"

	// -- Data Types --
	ActionCastInt      Action = "int64"
	ActionCastFloat    Action = "float64"
	ActionCastDatetime Action = "datetime64"
	ActionCastCategory Action = "category"
	ActionCastString   Action = "string"

	// -- Missing Values --
	ActionDropRows       Action = "drop_rows_with_missing_values"
	ActionDropColumn     Action = "drop_column"
	ActionFillMean       Action = "fillna_mean"
	ActionFillMedian     Action = "fillna_median"
	ActionFillMode       Action = "fillna_mode"
	ActionFillConstant   Action = "fillna_constant"

	// -- Duplicates --
	ActionDropDuplicates Action = "drop_duplicates"

	// -- Outliers --
	ActionClipToBounds   Action = "clip_to_bounds"
	ActionWinsorize      Action = "winsorize"
	ActionRemoveOutliers Action = "remove_outliers"
	ActionFlagOutliers   Action = "flag_outliers"

	// -- Normalization --
	ActionStandardScaler Action = "StandardScaler"
	ActionMinMaxScaler   Action = "MinMaxScaler"
	ActionLogTransform   Action = "Log-Transform"

	// -- Value Standardization --
	ActionStandardizeValues Action = "standardize_values"

	// -- Feature Generation --
	ActionDeriveFeature Action = "derive_feature"

	// -- Validation (read-only outcomes) --
	ActionValidationCompleted Action = "completed"
	ActionValidationIssues    Action = "issues_found"

	// -- General Issue --
	ActionApplyFix Action = "apply_fix"
)

// Mapping is a single value rewrite pair used by value standardization.
type Mapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Params carries the optional, action-specific parameters of a suggestion or
// choice. Zero values mean "not supplied".
type Params struct {
	// ConstantValue is the fill value for fillna_constant.
	ConstantValue string `json:"constant_value,omitempty"`
	// Mappings holds the from=>to rewrites for standardize_values.
	Mappings []Mapping `json:"mappings,omitempty"`
	// Formula is the derivation expression for a generated feature.
	Formula string `json:"formula,omitempty"`
	// Code is a pre-generated instruction statement (general issue fixes).
	Code string `json:"code,omitempty"`
	// Fix is the human-readable description of a general issue fix.
	Fix string `json:"fix,omitempty"`
}

// Suggestion is an advisor-derived (or fallback) recommended action for one
// entity: a column, the whole dataset, or a candidate new feature. After
// interpretation every profiled entity has exactly one Suggestion, even when
// the advisor was unreachable.
type Suggestion struct {
	Entity string `json:"entity"`
	Action Action `json:"action"`
	Reason string `json:"reason"`
	Params Params `json:"params,omitempty"`

	// Dtype is the entity's current dtype, included for display where the
	// profiling stage knows it.
	Dtype string `json:"dtype,omitempty"`
	// Severity is set on validation issue records only.
	Severity string `json:"severity,omitempty"`
}

// Choice is the user-finalized decision for one entity. It is seeded from the
// entity's Suggestion and freely overridable before apply.
type Choice struct {
	Entity string `json:"entity"`
	Stage  Stage  `json:"stage"`
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
	Params Params `json:"params,omitempty"`
}

// LogStatus is the definitive per-entity outcome of an apply step.
type LogStatus string

const (
	StatusSuccess LogStatus = "success"
	StatusError   LogStatus = "error"
	StatusSkipped LogStatus = "skipped"
)

// StageLogEntry records what happened to one entity during one apply step.
// The log is the audit trail: every entity with a non-skip choice produces an
// entry with a definitive status.
type StageLogEntry struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Choice    Choice    `json:"choice"`
	Code      string    `json:"code,omitempty"`
	Status    LogStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StageLog is the ordered set of entries produced by one apply of one stage.
// Re-applying a stage overwrites its slot rather than appending a second one.
type StageLog struct {
	Stage   Stage           `json:"stage"`
	Entries []StageLogEntry `json:"entries"`
}

// PlanStep names one stage of the cleaning plan together with its
// human-facing rationale.
type PlanStep struct {
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
}
