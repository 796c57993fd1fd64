// File: internal/tui/actions_test.go
package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adelmore/scour-cli/api/schemas"
)

func TestActionCycle(t *testing.T) {
	for _, stage := range []schemas.Stage{
		schemas.StageDataTypes, schemas.StageMissingValues, schemas.StageDuplicates,
		schemas.StageOutliers, schemas.StageValueStandardization,
		schemas.StageNormalization, schemas.StageFeatureGeneration,
	} {
		cycle := actionCycle(stage)
		assert.NotEmpty(t, cycle, "stage %s should be cycleable", stage)
		assert.Equal(t, schemas.ActionSkip, cycle[0], "skip leads the cycle for %s", stage)
	}

	assert.Nil(t, actionCycle(schemas.StageValidation), "validation is read-only")
	assert.Nil(t, actionCycle(schemas.StageGeneralIssue))
}

func TestActionTakesParam(t *testing.T) {
	assert.True(t, actionTakesParam(schemas.ActionFillConstant))
	assert.True(t, actionTakesParam(schemas.ActionDeriveFeature))
	assert.True(t, actionTakesParam(schemas.ActionStandardizeValues))
	assert.False(t, actionTakesParam(schemas.ActionSkip))
	assert.False(t, actionTakesParam(schemas.ActionDropDuplicates))
}

func TestParamValueRoundTrip(t *testing.T) {
	c := schemas.Choice{
		Action: schemas.ActionStandardizeValues,
		Params: schemas.Params{Mappings: []schemas.Mapping{
			{From: "U.S.A", To: "USA"},
			{From: "United States", To: "USA"},
		}},
	}
	assert.Equal(t, "U.S.A => USA, United States => USA", paramValue(c))

	var parsed schemas.Choice
	parsed.Action = schemas.ActionStandardizeValues
	setParamValue(&parsed, paramValue(c))
	assert.Equal(t, c.Params.Mappings, parsed.Params.Mappings)
}

func TestSetParamValue(t *testing.T) {
	c := schemas.Choice{Action: schemas.ActionFillConstant}
	setParamValue(&c, "Unknown")
	assert.Equal(t, "Unknown", c.Params.ConstantValue)

	c = schemas.Choice{Action: schemas.ActionDeriveFeature}
	setParamValue(&c, "price * quantity")
	assert.Equal(t, "price * quantity", c.Params.Formula)

	c = schemas.Choice{Action: schemas.ActionStandardizeValues}
	setParamValue(&c, "a => b, malformed, => x, c =>")
	assert.Equal(t, []schemas.Mapping{{From: "a", To: "b"}}, c.Params.Mappings)
}
