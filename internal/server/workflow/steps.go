package workflow

import (
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
)

// Step is the persisted name of a workflow state, e.g. "found_photo".
type Step string

// StepIdle is the state of a user without a session.
const StepIdle Step = "idle"

// Stage is a flow-independent workflow state.
type Stage int

const (
	StageCategory Stage = iota + 1
	StageAttributes
	StagePhoto
	StageLocation
	StageSecrets
	StageConfirm
)

var stageNames = map[Stage]string{
	StageCategory:   "category",
	StageAttributes: "attributes",
	StagePhoto:      "photo",
	StageLocation:   "location",
	StageSecrets:    "secrets",
	StageConfirm:    "confirm",
}

func (s Stage) String() string { return stageNames[s] }

// StepFor names the step of a flow at a stage.
func StepFor(flow models.Flow, stage Stage) Step {
	return Step(string(flow) + "_" + stageNames[stage])
}

// ParseStep splits a persisted step into flow and stage.
func ParseStep(s Step) (models.Flow, Stage, bool) {
	flow, name, ok := strings.Cut(string(s), "_")
	if !ok || !models.Flow(flow).Valid() {
		return "", 0, false
	}
	for stage, n := range stageNames {
		if n == name {
			return models.Flow(flow), stage, true
		}
	}
	return "", 0, false
}
