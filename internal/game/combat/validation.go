package combat

import (
	"math"
	"strconv"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/model"
)

// ValidateScenario checks a scenario before any simulation runs.
//
// Checks:
//   - time window is positive and at most rules.MaxTimeWindow
//   - between one and rules.MaxTargets targets
//   - burst window and timeline step are not negative
//   - the timeline step yields at most rules.MaxTimelineSamples samples
//   - every enemy profile has non-negative defense/resistance and damage-taken overrides
//   - crit mode is known
func ValidateScenario(rules config.Rules, sc model.Scenario) error {
	if !(sc.TimeWindow > 0) || math.IsInf(sc.TimeWindow, 0) {
		return &model.InvalidScenarioError{Field: "time_window", Value: ftoa(sc.TimeWindow), Reason: "must be a positive number of seconds"}
	}
	if sc.TimeWindow > rules.MaxTimeWindow {
		return &model.InvalidScenarioError{Field: "time_window", Value: ftoa(sc.TimeWindow), Reason: "must not exceed " + ftoa(rules.MaxTimeWindow) + " seconds"}
	}
	if sc.Targets < 1 {
		return &model.InvalidScenarioError{Field: "targets", Value: strconv.Itoa(sc.Targets), Reason: "must be at least 1"}
	}
	if sc.Targets > rules.MaxTargets {
		return &model.InvalidScenarioError{Field: "targets", Value: strconv.Itoa(sc.Targets), Reason: "must not exceed " + strconv.Itoa(rules.MaxTargets)}
	}
	if sc.BurstWindow < 0 || math.IsNaN(sc.BurstWindow) {
		return &model.InvalidScenarioError{Field: "burst_window", Value: ftoa(sc.BurstWindow), Reason: "must not be negative"}
	}
	if sc.TimelineStep < 0 || math.IsNaN(sc.TimelineStep) {
		return &model.InvalidScenarioError{Field: "timeline_step", Value: ftoa(sc.TimelineStep), Reason: "must not be negative"}
	}
	step := sc.TimelineStep
	if step == 0 {
		step = rules.TimelineStep
	}
	if math.Floor(sc.TimeWindow/step)+1 > float64(rules.MaxTimelineSamples) {
		return &model.InvalidScenarioError{Field: "timeline_step", Value: ftoa(step), Reason: "yields more than " + strconv.Itoa(rules.MaxTimelineSamples) + " timeline samples"}
	}
	if sc.CritMode != model.CritExpected && sc.CritMode != model.CritStochastic {
		return &model.InvalidScenarioError{Field: "crit_mode", Value: sc.CritMode.String(), Reason: "unknown crit mode"}
	}
	if err := validateEnemy("enemy", sc.Enemy); err != nil {
		return err
	}
	for i, e := range sc.Enemies {
		if err := validateEnemy("enemies["+strconv.Itoa(i)+"]", e); err != nil {
			return err
		}
	}
	return nil
}

func validateEnemy(field string, e model.EnemyProfile) error {
	if !(e.Defense >= 0) || math.IsInf(e.Defense, 0) {
		return &model.InvalidScenarioError{Field: field + ".defense", Value: ftoa(e.Defense), Reason: "must be a non-negative number"}
	}
	if !(e.Resistance >= 0) || math.IsInf(e.Resistance, 0) {
		return &model.InvalidScenarioError{Field: field + ".resistance", Value: ftoa(e.Resistance), Reason: "must be a non-negative number"}
	}
	for dt, m := range e.DamageTaken {
		if !dt.Valid() {
			return &model.UnknownDamageTypeError{Value: dt.String()}
		}
		if !(m >= 0) || math.IsInf(m, 0) {
			return &model.InvalidScenarioError{Field: field + ".damage_taken." + dt.String(), Value: ftoa(m), Reason: "must be a non-negative number"}
		}
	}
	return nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
