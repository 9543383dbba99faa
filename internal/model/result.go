package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HitSource tells which mechanic produced a hit.
type HitSource int8

const (
	SourceAttack HitSource = iota
	SourceSkill
	SourceDoT
)

func (s HitSource) String() string {
	switch s {
	case SourceSkill:
		return "skill"
	case SourceDoT:
		return "dot"
	default:
		return "attack"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s HitSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *HitSource) UnmarshalText(text []byte) error {
	switch string(text) {
	case "attack":
		*s = SourceAttack
	case "skill":
		*s = SourceSkill
	case "dot":
		*s = SourceDoT
	default:
		return fmt.Errorf("unknown hit source %q", string(text))
	}
	return nil
}

// HitEvent is a single damage instance inside one calculation run.
// Events are never persisted.
type HitEvent struct {
	Time      float64    `json:"time"`
	Target    int        `json:"target"`
	Source    HitSource  `json:"source"`
	Type      DamageType `json:"type"`
	Raw       float64    `json:"raw"`
	Effective float64    `json:"effective"`
	Hits      float64    `json:"hits"`
	Crit      bool       `json:"crit,omitempty"`
}

// TimelinePoint is cumulative effective damage at a point in time.
type TimelinePoint struct {
	Time   float64 `json:"time"`
	Damage float64 `json:"damage"`
}

// DpsResult summarizes one operator's output over the scenario window.
type DpsResult struct {
	Operator string `json:"operator"`
	Class    string `json:"class,omitempty"`

	TimeWindow   float64                `json:"time_window"`
	TotalDamage  float64                `json:"total_damage"`
	AverageDps   float64                `json:"average_dps"`
	ByType       map[DamageType]float64 `json:"by_type"`
	BurstDps     float64                `json:"burst_dps"`
	SustainedDps float64                `json:"sustained_dps"`
	Attacks      int                    `json:"attacks"`
	Crits        int                    `json:"crits"`
	SkillUptime  float64                `json:"skill_uptime"`

	DPH             float64 `json:"dph"`
	ArmorBreakPoint float64 `json:"armor_break_point"`
	CostEfficiency  float64 `json:"cost_efficiency"`
	HPS             float64 `json:"hps"`
	HPH             float64 `json:"hph"`
	Survivability   float64 `json:"survivability"`

	Timeline []TimelinePoint `json:"timeline,omitempty"`
	Events   []HitEvent      `json:"events,omitempty"`
}

// RankedResult is one row of a comparison.
type RankedResult struct {
	Rank   int       `json:"rank"`
	Result DpsResult `json:"result"`
	// RelativeToBest is the sort metric divided by the leader's (1.0 = best).
	RelativeToBest float64 `json:"relative_to_best"`
	// GapToNext is the metric difference to the next-ranked entry.
	GapToNext float64 `json:"gap_to_next"`
}

// ComparisonResult is a ranked set of results produced under one scenario.
type ComparisonResult struct {
	ID        uuid.UUID      `json:"id"`
	SortKey   SortKey        `json:"sort_key"`
	Scenario  Scenario       `json:"scenario"`
	CreatedAt time.Time      `json:"created_at"`
	Entries   []RankedResult `json:"entries"`
}

// Names returns the operator identities in rank order.
func (c ComparisonResult) Names() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Result.Operator
	}
	return out
}
