package model

import (
	"fmt"
	"strings"
)

// SortKey selects the metric a comparison ranks by. Ranking is always
// descending on the metric with ties broken by operator name.
type SortKey int8

const (
	SortAverageDps SortKey = iota
	SortBurstDps
	SortSustainedDps
	SortTotalDamage
	SortDPH
	SortCostEfficiency
)

var sortKeyNames = map[SortKey]string{
	SortAverageDps:     "average_dps",
	SortBurstDps:       "burst_dps",
	SortSustainedDps:   "sustained_dps",
	SortTotalDamage:    "total_damage",
	SortDPH:            "dph",
	SortCostEfficiency: "cost_efficiency",
}

func (k SortKey) String() string {
	if n, ok := sortKeyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("SortKey(%d)", int8(k))
}

// ParseSortKey resolves a sort key name; the empty string selects average DPS.
func ParseSortKey(s string) (SortKey, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "dps" {
		return SortAverageDps, nil
	}
	for k, n := range sortKeyNames {
		if n == key {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sort key %q", s)
}

// Metric extracts the value k ranks by.
func (k SortKey) Metric(r DpsResult) float64 {
	switch k {
	case SortBurstDps:
		return r.BurstDps
	case SortSustainedDps:
		return r.SustainedDps
	case SortTotalDamage:
		return r.TotalDamage
	case SortDPH:
		return r.DPH
	case SortCostEfficiency:
		return r.CostEfficiency
	default:
		return r.AverageDps
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SortKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SortKey) UnmarshalText(text []byte) error {
	v, err := ParseSortKey(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
