package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/opdps/internal/game/combat"
	"github.com/udisondev/opdps/internal/game/stat"
	"github.com/udisondev/opdps/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OperatorRef names an operator for a calculation: either a stored one by
// ID or an inline profile. Modifiers are appended to the stored ones.
type OperatorRef struct {
	ID        int64                  `json:"id,omitempty"`
	Label     string                 `json:"label,omitempty"`
	Profile   *model.OperatorProfile `json:"profile,omitempty"`
	Modifiers []model.Modifier       `json:"modifiers,omitempty"`
}

// CalculateRequest asks for a single operator's DPS.
type CalculateRequest struct {
	Operator OperatorRef     `json:"operator"`
	Scenario *model.Scenario `json:"scenario,omitempty"`
}

// CalculateResponse is the engine result plus its history entry.
type CalculateResponse struct {
	Result    model.DpsResult `json:"result"`
	HistoryID int64           `json:"history_id"`
	// Cached is set when an identical calculation was already recorded.
	Cached bool `json:"cached"`
}

// CompareRequest asks for a ranked comparison.
type CompareRequest struct {
	Operators []OperatorRef   `json:"operators"`
	Scenario  *model.Scenario `json:"scenario,omitempty"`
	SortKey   model.SortKey   `json:"sort_key"`
}

// Curve kinds.
const (
	CurveDefense    = "defense"
	CurveResistance = "resistance"
)

// Resistance curves default to the full range in 5% steps.
const (
	defaultResistanceMax  = 1.0
	defaultResistanceStep = 0.05
)

// CurveRequest asks for average DPS across a range of enemy defense or resistance.
type CurveRequest struct {
	Operator OperatorRef     `json:"operator"`
	Scenario *model.Scenario `json:"scenario,omitempty"`
	Kind     string          `json:"kind"`
	Max      float64         `json:"max,omitempty"`
	Step     float64         `json:"step,omitempty"`
}

// CurveResponse carries the sampled curve.
type CurveResponse struct {
	Operator string              `json:"operator"`
	Kind     string              `json:"kind"`
	Points   []combat.CurvePoint `json:"points"`
}

// Calculate runs one operator through the scenario. Identical requests
// under identical rules are answered from the history.
func (c *Calculator) Calculate(ctx context.Context, req CalculateRequest) (CalculateResponse, error) {
	entry, opID, err := c.resolveRef(ctx, req.Operator)
	if err != nil {
		return CalculateResponse{}, err
	}
	sc := c.scenarioOr(req.Scenario)

	params := struct {
		Kind      string                `json:"kind"`
		Rules     any                   `json:"rules"`
		Profile   model.OperatorProfile `json:"profile"`
		Modifiers []model.Modifier      `json:"modifiers"`
		Scenario  model.Scenario        `json:"scenario"`
		Operator  string                `json:"operator"`
	}{model.KindCalculate, c.rules, entry.Profile, entry.Modifiers, sc, entry.Identity()}
	paramsJSON, fp, err := fingerprint(params)
	if err != nil {
		return CalculateResponse{}, err
	}

	prev, err := c.history.FindByFingerprint(ctx, fp)
	if err != nil {
		return CalculateResponse{}, fmt.Errorf("looking up history: %w", err)
	}
	if prev != nil {
		var res model.DpsResult
		if err := json.Unmarshal(prev.Results, &res); err == nil {
			slog.Debug("calculation served from history", "id", prev.ID, "fingerprint", fp)
			return CalculateResponse{Result: res, HistoryID: prev.ID, Cached: true}, nil
		}
		slog.Warn("unreadable history record, recalculating", "id", prev.ID)
	}

	res, err := combat.Calculate(c.rules, entry.Profile, entry.Modifiers, sc)
	if err != nil {
		return CalculateResponse{}, err
	}
	res.Operator = entry.Identity()

	id, err := c.record(ctx, model.KindCalculate, opID, fp, paramsJSON, res)
	if err != nil {
		return CalculateResponse{}, err
	}
	return CalculateResponse{Result: res, HistoryID: id}, nil
}

// Compare ranks several operators under one scenario and records the result.
func (c *Calculator) Compare(ctx context.Context, req CompareRequest) (model.ComparisonResult, error) {
	if len(req.Operators) == 0 {
		return model.ComparisonResult{}, &model.EmptyOperatorSetError{}
	}
	entries := make([]combat.Entry, 0, len(req.Operators))
	for _, ref := range req.Operators {
		e, _, err := c.resolveRef(ctx, ref)
		if err != nil {
			return model.ComparisonResult{}, err
		}
		entries = append(entries, e)
	}
	sc := c.scenarioOr(req.Scenario)

	out, err := c.comparer.Compare(ctx, entries, sc, req.SortKey)
	if err != nil {
		return model.ComparisonResult{}, err
	}

	params := struct {
		Kind     string         `json:"kind"`
		Rules    any            `json:"rules"`
		Entries  []combat.Entry `json:"entries"`
		Scenario model.Scenario `json:"scenario"`
		SortKey  model.SortKey  `json:"sort_key"`
	}{model.KindCompare, c.rules, entries, sc, req.SortKey}
	paramsJSON, fp, err := fingerprint(params)
	if err != nil {
		return model.ComparisonResult{}, err
	}
	if _, err := c.record(ctx, model.KindCompare, nil, fp, paramsJSON, out); err != nil {
		return model.ComparisonResult{}, err
	}

	slog.Info("comparison completed",
		"id", out.ID,
		"operators", len(entries),
		"leader", out.Entries[0].Result.Operator)
	return out, nil
}

// Curve sweeps enemy defense or resistance for one operator.
func (c *Calculator) Curve(ctx context.Context, req CurveRequest) (CurveResponse, error) {
	entry, opID, err := c.resolveRef(ctx, req.Operator)
	if err != nil {
		return CurveResponse{}, err
	}
	sc := c.scenarioOr(req.Scenario)

	all := make([]model.Modifier, 0, len(sc.Environment)+len(entry.Modifiers))
	all = append(all, sc.Environment...)
	all = append(all, entry.Modifiers...)
	resolved, err := stat.Resolve(entry.Profile, all)
	if err != nil {
		return CurveResponse{}, err
	}

	if req.Max < 0 || req.Step < 0 {
		return CurveResponse{}, fmt.Errorf("curve max and step must not be negative: %w", ErrInvalidRequest)
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	var points []combat.CurvePoint
	switch kind {
	case "", CurveDefense:
		kind = CurveDefense
		maxV, step := orDefault(req.Max, c.rules.CurveMaxDefense), orDefault(req.Step, c.rules.CurveStep)
		points, err = combat.DefenseCurve(c.rules, resolved, sc, maxV, step)
	case CurveResistance:
		maxV, step := orDefault(req.Max, defaultResistanceMax), orDefault(req.Step, defaultResistanceStep)
		points, err = combat.ResistanceCurve(c.rules, resolved, sc, maxV, step)
	default:
		return CurveResponse{}, fmt.Errorf("unknown curve kind %q: %w", req.Kind, ErrInvalidRequest)
	}
	if errors.Is(err, combat.ErrCurveBounds) {
		return CurveResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err != nil {
		return CurveResponse{}, err
	}

	out := CurveResponse{Operator: entry.Identity(), Kind: kind, Points: points}
	params := struct {
		Kind     string         `json:"kind"`
		Curve    string         `json:"curve"`
		Rules    any            `json:"rules"`
		Entry    combat.Entry   `json:"entry"`
		Scenario model.Scenario `json:"scenario"`
		Max      float64        `json:"max"`
		Step     float64        `json:"step"`
	}{model.KindCurve, kind, c.rules, entry, sc, req.Max, req.Step}
	paramsJSON, fp, err := fingerprint(params)
	if err != nil {
		return CurveResponse{}, err
	}
	if _, err := c.record(ctx, model.KindCurve, opID, fp, paramsJSON, out); err != nil {
		return CurveResponse{}, err
	}
	return out, nil
}

// resolveRef turns a reference into a comparison entry, loading stored
// operators and their saved modifiers.
func (c *Calculator) resolveRef(ctx context.Context, ref OperatorRef) (combat.Entry, *int64, error) {
	if ref.ID == 0 {
		if ref.Profile == nil {
			return combat.Entry{}, nil, &model.InvalidProfileError{Field: "operator", Reason: "either id or profile is required"}
		}
		return combat.Entry{Label: ref.Label, Profile: *ref.Profile, Modifiers: ref.Modifiers}, nil, nil
	}

	rec, err := c.Operator(ctx, ref.ID)
	if err != nil {
		return combat.Entry{}, nil, err
	}
	mods := make([]model.Modifier, 0, len(rec.Modifiers)+len(ref.Modifiers))
	mods = append(mods, rec.Modifiers...)
	mods = append(mods, ref.Modifiers...)
	id := ref.ID
	return combat.Entry{Label: ref.Label, Profile: rec.Profile, Modifiers: mods}, &id, nil
}

func (c *Calculator) scenarioOr(sc *model.Scenario) model.Scenario {
	if sc == nil {
		return c.scenario
	}
	return *sc
}

func (c *Calculator) record(ctx context.Context, kind string, opID *int64, fp string, params []byte, result any) (int64, error) {
	resJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("encoding %s result: %w", kind, err)
	}
	id, err := c.history.Insert(ctx, model.CalculationRecord{
		Kind:        kind,
		OperatorID:  opID,
		Fingerprint: fp,
		Parameters:  params,
		Results:     resJSON,
	})
	if err != nil {
		return 0, fmt.Errorf("recording %s: %w", kind, err)
	}
	return id, nil
}

// fingerprint encodes params and hashes the encoding with BLAKE2b-256.
func fingerprint(params any) ([]byte, string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, "", fmt.Errorf("encoding parameters: %w", err)
	}
	sum := blake2b.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
