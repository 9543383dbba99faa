package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/game/stat"
	"github.com/udisondev/opdps/internal/model"
)

// ErrCurveBounds reports a curve range or step that cannot be swept.
var ErrCurveBounds = errors.New("invalid curve bounds")

// CurvePoint is the average DPS against one enemy stat value.
type CurvePoint struct {
	Value float64 `json:"value"`
	Dps   float64 `json:"dps"`
}

// DefenseCurve sweeps enemy defense from 0 to maxDefense in step increments
// and records average DPS at each point. Per-target enemy overrides are
// dropped so every target uses the swept profile.
func DefenseCurve(rules config.Rules, r stat.Resolved, sc model.Scenario, maxDefense, step float64) ([]CurvePoint, error) {
	return sweep(rules, r, sc, maxDefense, step, func(e *model.EnemyProfile, v float64) { e.Defense = v })
}

// ResistanceCurve sweeps enemy resistance from 0 to maxResistance.
func ResistanceCurve(rules config.Rules, r stat.Resolved, sc model.Scenario, maxResistance, step float64) ([]CurvePoint, error) {
	return sweep(rules, r, sc, maxResistance, step, func(e *model.EnemyProfile, v float64) { e.Resistance = v })
}

func sweep(rules config.Rules, r stat.Resolved, sc model.Scenario, maxValue, step float64, set func(*model.EnemyProfile, float64)) ([]CurvePoint, error) {
	if !(step > 0) {
		return nil, fmt.Errorf("curve step must be positive, got %g: %w", step, ErrCurveBounds)
	}
	if maxValue < 0 || math.IsInf(maxValue, 0) {
		return nil, fmt.Errorf("curve upper bound must be a non-negative number, got %g: %w", maxValue, ErrCurveBounds)
	}
	count := math.Floor(maxValue/step+eps) + 1
	if count > float64(rules.MaxCurvePoints) {
		return nil, fmt.Errorf("curve from 0 to %g by %g exceeds %d points: %w", maxValue, step, rules.MaxCurvePoints, ErrCurveBounds)
	}

	sc.Enemies = nil
	sc.RecordEvents = false
	n := int(count)
	points := make([]CurvePoint, 0, n)
	for i := range n {
		v := float64(i) * step
		set(&sc.Enemy, v)
		res, err := Simulate(rules, r, sc)
		if err != nil {
			return nil, fmt.Errorf("curve point %g: %w", v, err)
		}
		points = append(points, CurvePoint{Value: v, Dps: res.AverageDps})
	}
	return points, nil
}
