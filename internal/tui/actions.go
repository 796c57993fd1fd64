// File: internal/tui/actions.go
package tui

import (
	"strings"

	"github.com/adelmore/scour-cli/api/schemas"
)

// actionCycle is the selectable action order per stage. Read-only stages
// return nil and their suggestions cannot be cycled.
func actionCycle(stage schemas.Stage) []schemas.Action {
	switch stage {
	case schemas.StageDataTypes:
		return []schemas.Action{
			schemas.ActionSkip, schemas.ActionCastInt, schemas.ActionCastFloat,
			schemas.ActionCastDatetime, schemas.ActionCastCategory, schemas.ActionCastString,
		}
	case schemas.StageMissingValues:
		return []schemas.Action{
			schemas.ActionSkip, schemas.ActionDropRows, schemas.ActionDropColumn,
			schemas.ActionFillMean, schemas.ActionFillMedian, schemas.ActionFillMode,
			schemas.ActionFillConstant,
		}
	case schemas.StageDuplicates:
		return []schemas.Action{schemas.ActionSkip, schemas.ActionDropDuplicates}
	case schemas.StageOutliers:
		return []schemas.Action{
			schemas.ActionSkip, schemas.ActionClipToBounds, schemas.ActionWinsorize,
			schemas.ActionRemoveOutliers, schemas.ActionFlagOutliers,
		}
	case schemas.StageValueStandardization:
		return []schemas.Action{schemas.ActionSkip, schemas.ActionStandardizeValues}
	case schemas.StageNormalization:
		return []schemas.Action{
			schemas.ActionSkip, schemas.ActionStandardScaler,
			schemas.ActionMinMaxScaler, schemas.ActionLogTransform,
		}
	case schemas.StageFeatureGeneration:
		return []schemas.Action{schemas.ActionSkip, schemas.ActionDeriveFeature}
	}
	return nil
}

// actionTakesParam reports whether the action has an editable parameter.
func actionTakesParam(a schemas.Action) bool {
	switch a {
	case schemas.ActionFillConstant, schemas.ActionDeriveFeature, schemas.ActionStandardizeValues:
		return true
	}
	return false
}

// paramValue renders the editable parameter of a choice as text.
func paramValue(c schemas.Choice) string {
	switch c.Action {
	case schemas.ActionFillConstant:
		return c.Params.ConstantValue
	case schemas.ActionDeriveFeature:
		return c.Params.Formula
	case schemas.ActionStandardizeValues:
		pairs := make([]string, len(c.Params.Mappings))
		for i, m := range c.Params.Mappings {
			pairs[i] = m.From + " => " + m.To
		}
		return strings.Join(pairs, ", ")
	}
	return ""
}

// setParamValue parses the edited text back into the choice.
func setParamValue(c *schemas.Choice, v string) {
	switch c.Action {
	case schemas.ActionFillConstant:
		c.Params.ConstantValue = v
	case schemas.ActionDeriveFeature:
		c.Params.Formula = v
	case schemas.ActionStandardizeValues:
		var mappings []schemas.Mapping
		for _, pair := range strings.Split(v, ",") {
			from, to, ok := strings.Cut(pair, "=>")
			if !ok {
				continue
			}
			from, to = strings.TrimSpace(from), strings.TrimSpace(to)
			if from == "" || to == "" {
				continue
			}
			mappings = append(mappings, schemas.Mapping{From: from, To: to})
		}
		c.Params.Mappings = mappings
	}
}
