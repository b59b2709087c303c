package workflow

import (
	"testing"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Callback
		ok   bool
	}{
		{"start", "flow:lost:start", Callback{Flow: models.FlowLost, Action: ActionStart}, true},
		{"with value", "flow:found:category:pet", Callback{Flow: models.FlowFound, Action: ActionCategory, Value: "pet"}, true},
		{"value keeps colons", "flow:lost:confirm:a:b", Callback{Flow: models.FlowLost, Action: ActionConfirm, Value: "a:b"}, true},
		{"menu with any flow", "flow:main:menu", Callback{Flow: "main", Action: ActionMenu}, true},
		{"unknown flow", "flow:stolen:start", Callback{}, false},
		{"too short", "flow:lost", Callback{}, false},
		{"wrong prefix", "menu:lost:start", Callback{}, false},
		{"empty action", "flow:lost:", Callback{}, false},
		{"empty", "", Callback{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCallback(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallback_String(t *testing.T) {
	assert.Equal(t, "flow:lost:start", Callback{Flow: models.FlowLost, Action: ActionStart}.String())
	assert.Equal(t, "flow:found:confirm:publish", Callback{Flow: models.FlowFound, Action: ActionConfirm, Value: ConfirmPublish}.String())
}

func TestStepFor_RoundTrip(t *testing.T) {
	for _, flow := range []models.Flow{models.FlowLost, models.FlowFound} {
		for stage := range stageNames {
			step := StepFor(flow, stage)
			gotFlow, gotStage, ok := ParseStep(step)
			assert.True(t, ok, step)
			assert.Equal(t, flow, gotFlow)
			assert.Equal(t, stage, gotStage)
		}
	}

	assert.Equal(t, Step("found_photo"), StepFor(models.FlowFound, StagePhoto))

	for _, bad := range []Step{StepIdle, "lost", "lost_review", "stolen_photo", ""} {
		_, _, ok := ParseStep(bad)
		assert.False(t, ok, bad)
	}
}

func TestSplitSecrets(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitSecrets(" a ,\r\n\nb; c;d "))
	assert.Equal(t, []string{"only"}, splitSecrets("only"))
	assert.Empty(t, splitSecrets(" ,; \n"))
}
