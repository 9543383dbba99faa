package dataio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/opdps/internal/model"
)

// column maps one operator field to the header names that may carry it.
// The first alias is the canonical name used on export.
type column struct {
	aliases []string
	// percent columns accept "30%" or 30 for 0.30; values above 1 are read as percentages.
	percent bool
	set     func(p *model.OperatorProfile, raw string) error
	get     func(p model.OperatorProfile) any
}

const (
	colName     = "name"
	colAtkSpeed = "atk_speed"
)

// Defaults applied to fields absent from an imported row.
const (
	DefaultClass          = "unknown"
	DefaultAttackInterval = 1.0
	DefaultCost           = 10
	DefaultBlockCount     = 1
)

var columns = []column{
	{
		aliases: []string{colName, "名称", "干员名称", "姓名", "operator"},
		set:     func(p *model.OperatorProfile, s string) error { p.Name = s; return nil },
		get:     func(p model.OperatorProfile) any { return p.Name },
	},
	{
		aliases: []string{"class", "class_type", "type", "职业", "职业类型"},
		set:     func(p *model.OperatorProfile, s string) error { p.Class = s; return nil },
		get:     func(p model.OperatorProfile) any { return p.Class },
	},
	{
		aliases: []string{"damage_type", "atk_type", "attack_type", "攻击类型", "伤害类型"},
		set: func(p *model.OperatorProfile, s string) error {
			dt, err := model.ParseDamageType(s)
			if err != nil {
				return err
			}
			p.DamageType = dt
			return nil
		},
		get: func(p model.OperatorProfile) any { return p.DamageType.String() },
	},
	floatColumn([]string{"attack", "atk", "攻击力", "攻击"}, false, func(p *model.OperatorProfile) *float64 { return &p.Attack }),
	floatColumn([]string{"attack_interval", "interval", "攻击间隔"}, false, func(p *model.OperatorProfile) *float64 { return &p.AttackInterval }),
	floatColumn([]string{"aspd_bonus", "attack_speed_bonus", "攻速加成"}, true, func(p *model.OperatorProfile) *float64 { return &p.AttackSpeed }),
	floatColumn([]string{"crit_chance", "crit_rate", "暴击率"}, true, func(p *model.OperatorProfile) *float64 { return &p.CritChance }),
	floatColumn([]string{"crit_multiplier", "crit_damage", "暴击伤害"}, false, func(p *model.OperatorProfile) *float64 { return &p.CritMultiplier }),
	floatColumn([]string{"defense_ignore", "def_ignore", "无视防御"}, true, func(p *model.OperatorProfile) *float64 { return &p.DefenseIgnore }),
	floatColumn([]string{"resistance_ignore", "res_ignore", "无视法抗"}, true, func(p *model.OperatorProfile) *float64 { return &p.ResistanceIgnore }),
	floatColumn([]string{"hit_count", "hits", "攻击段数"}, false, func(p *model.OperatorProfile) *float64 { return &p.HitCount }),
	intColumn([]string{"targets", "目标数"}, func(p *model.OperatorProfile) *int { return &p.Targets }),
	floatColumn([]string{"hp", "health", "生命值", "血量", "生命"}, false, func(p *model.OperatorProfile) *float64 { return &p.HP }),
	floatColumn([]string{"defense", "def", "防御", "防御力"}, false, func(p *model.OperatorProfile) *float64 { return &p.Defense }),
	floatColumn([]string{"resistance", "mdef", "magic_defense", "res", "resist", "法抗", "法术抗性"}, true, func(p *model.OperatorProfile) *float64 { return &p.Resistance }),
	intColumn([]string{"cost", "deploy_cost", "费用", "部署费用"}, func(p *model.OperatorProfile) *int { return &p.Cost }),
	intColumn([]string{"block_count", "block", "阻挡", "阻挡数"}, func(p *model.OperatorProfile) *int { return &p.BlockCount }),
	floatColumn([]string{"heal_amount", "heal", "治疗量"}, false, func(p *model.OperatorProfile) *float64 { return &p.HealAmount }),
}

// atkSpeedAliases name the legacy "attacks per second" column. It is only
// read when no attack interval column is present.
var atkSpeedAliases = []string{colAtkSpeed, "attack_speed", "speed", "攻击速度", "攻速"}

func floatColumn(aliases []string, percent bool, field func(*model.OperatorProfile) *float64) column {
	return column{
		aliases: aliases,
		percent: percent,
		set: func(p *model.OperatorProfile, s string) error {
			v, err := parseFloatCell(s, percent)
			if err != nil {
				return err
			}
			*field(p) = v
			return nil
		},
		get: func(p model.OperatorProfile) any { return *field(&p) },
	}
}

func intColumn(aliases []string, field func(*model.OperatorProfile) *int) column {
	return column{
		aliases: aliases,
		set: func(p *model.OperatorProfile, s string) error {
			v, err := parseFloatCell(s, false)
			if err != nil {
				return err
			}
			*field(p) = int(v)
			return nil
		},
		get: func(p model.OperatorProfile) any { return *field(&p) },
	}
}

// headerNames returns the canonical export header.
func headerNames() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.aliases[0]
	}
	return out
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseFloatCell parses a numeric cell. It accepts "12.5", "12,5" and
// "30%"; with percent set, plain values above 1 are also read as percentages.
func parseFloatCell(s string, percent bool) (float64, error) {
	s = strings.TrimSpace(s)
	isPct := strings.HasSuffix(s, "%")
	if isPct {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if isPct || (percent && v > 1) {
		v /= 100
	}
	return v, nil
}

// mapper turns a header row into column bindings.
type mapper struct {
	cols     []int // header index -> columns index, -1 if unmapped
	atkSpeed int   // header index of the attacks-per-second column, -1 if absent
	hasName  bool
	interval bool
}

func newMapper(header []string) mapper {
	lookup := make(map[string]int)
	for ci, c := range columns {
		for _, a := range c.aliases {
			lookup[normalizeHeader(a)] = ci
		}
	}
	speed := make(map[string]bool, len(atkSpeedAliases))
	for _, a := range atkSpeedAliases {
		speed[normalizeHeader(a)] = true
	}

	m := mapper{cols: make([]int, len(header)), atkSpeed: -1}
	seen := make(map[int]bool)
	for hi, h := range header {
		key := normalizeHeader(h)
		m.cols[hi] = -1
		if ci, ok := lookup[key]; ok && !seen[ci] {
			seen[ci] = true
			m.cols[hi] = ci
			switch columns[ci].aliases[0] {
			case colName:
				m.hasName = true
			case "attack_interval":
				m.interval = true
			}
			continue
		}
		if speed[key] && m.atkSpeed < 0 {
			m.atkSpeed = hi
		}
	}
	return m
}

// profile builds an operator from one row of cells.
func (m mapper) profile(cells []string) (model.OperatorProfile, error) {
	p := model.OperatorProfile{
		Class:          DefaultClass,
		AttackInterval: DefaultAttackInterval,
		Cost:           DefaultCost,
		BlockCount:     DefaultBlockCount,
		DamageType:     model.DamagePhysical,
	}
	for hi, ci := range m.cols {
		if ci < 0 || hi >= len(cells) {
			continue
		}
		raw := strings.TrimSpace(cells[hi])
		if raw == "" {
			continue
		}
		if err := columns[ci].set(&p, raw); err != nil {
			return model.OperatorProfile{}, fmt.Errorf("column %s: %w", columns[ci].aliases[0], err)
		}
	}

	if !m.interval && m.atkSpeed >= 0 && m.atkSpeed < len(cells) {
		if raw := strings.TrimSpace(cells[m.atkSpeed]); raw != "" {
			aps, err := parseFloatCell(raw, false)
			if err != nil {
				return model.OperatorProfile{}, fmt.Errorf("column %s: %w", colAtkSpeed, err)
			}
			if aps <= 0 {
				return model.OperatorProfile{}, fmt.Errorf("column %s: attacks per second must be positive, got %g", colAtkSpeed, aps)
			}
			p.AttackInterval = 1 / aps
		}
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.OperatorProfile{}, fmt.Errorf("missing operator name")
	}
	return p, nil
}

// row renders p in header order.
func row(p model.OperatorProfile) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c.get(p)
	}
	return out
}
