package combat

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/game/stat"
	"github.com/udisondev/opdps/internal/model"
)

// eps absorbs float drift when comparing event times to window edges.
const eps = 1e-9

// seedMix decorrelates the two PCG state words derived from one seed.
const seedMix = 0x9e3779b97f4a7c15

// Calculate resolves profile against the scenario environment plus mods and
// simulates it. Environment modifiers are applied before the operator's own.
func Calculate(rules config.Rules, profile model.OperatorProfile, mods []model.Modifier, sc model.Scenario) (model.DpsResult, error) {
	all := make([]model.Modifier, 0, len(sc.Environment)+len(mods))
	all = append(all, sc.Environment...)
	all = append(all, mods...)

	resolved, err := stat.Resolve(profile, all)
	if err != nil {
		return model.DpsResult{}, err
	}
	return Simulate(rules, resolved, sc)
}

// Simulate runs one operator through the scenario window.
//
// In expected-value crit mode the result depends only on the inputs; in
// stochastic mode crit rolls come from a PCG generator seeded with sc.Seed,
// so equal seeds reproduce equal event sequences.
func Simulate(rules config.Rules, r stat.Resolved, sc model.Scenario) (model.DpsResult, error) {
	var src rand.Source
	if sc.CritMode == model.CritStochastic {
		src = rand.NewPCG(sc.Seed, sc.Seed^seedMix)
	}
	return SimulateWithSource(rules, r, sc, src)
}

// SimulateWithSource is Simulate with a caller-supplied random source for
// stochastic crit rolls. src is ignored in expected-value mode.
func SimulateWithSource(rules config.Rules, r stat.Resolved, sc model.Scenario, src rand.Source) (model.DpsResult, error) {
	if err := ValidateScenario(rules, sc); err != nil {
		return model.DpsResult{}, err
	}
	if sc.CritMode == model.CritStochastic && src == nil {
		src = rand.NewPCG(sc.Seed, sc.Seed^seedMix)
	}

	rn := &run{rules: rules, r: r, sc: sc}
	if sc.CritMode == model.CritStochastic {
		rn.rng = rand.New(src)
	}
	if err := rn.attacks(); err != nil {
		return model.DpsResult{}, err
	}
	if err := rn.dots(); err != nil {
		return model.DpsResult{}, err
	}

	slices.SortStableFunc(rn.events, func(a, b model.HitEvent) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})

	return rn.aggregate()
}

// run holds the mutable state of one Simulate call.
type run struct {
	rules config.Rules
	r     stat.Resolved
	sc    model.Scenario
	rng   *rand.Rand

	events  []model.HitEvent
	attackN int
	crits   int
	// dotApps[target] lists the times skill attacks applied the DoT.
	dotApps [][]float64
}

func (rn *run) pen() Penetration {
	return Penetration{
		Defense:    rn.r.Get(model.AttrDefenseIgnore),
		Resistance: rn.r.Get(model.AttrResistanceIgnore),
	}
}

// interval returns the effective attack interval given the skill state.
func (rn *run) interval(skillActive bool) float64 {
	speed := rn.r.Get(model.AttrAttackSpeed)
	if skillActive && rn.r.Skill != nil {
		speed += rn.r.Skill.AttackSpeed
	}
	return math.Max(rn.r.Get(model.AttrAttackInterval)/(1+speed), rn.rules.MinAttackInterval)
}

func (rn *run) targets(skillHit bool) int {
	n := int(rn.r.Get(model.AttrTargets))
	if skillHit && rn.r.Skill != nil && rn.r.Skill.MaxTargets > 0 {
		n = rn.r.Skill.MaxTargets
	}
	return max(1, min(rn.sc.Targets, n))
}

// critFactor returns the crit damage factor of one attack.
func (rn *run) critFactor() (float64, bool) {
	cc := rn.r.Get(model.AttrCritChance)
	cm := rn.r.Get(model.AttrCritMultiplier)
	if rn.rng == nil {
		return 1 + cc*(cm-1), false
	}
	if cc > 0 && rn.rng.Float64() < cc {
		return cm, true
	}
	return 1, false
}

// attacks emits base cadence events. Within a stretch of constant interval
// times are computed as start + k*interval to keep drift out of hit counts.
func (rn *run) attacks() error {
	window := rn.sc.TimeWindow
	skill := rn.r.Skill
	hits := rn.r.Get(model.AttrHitCount)
	pen := rn.pen()
	if skill != nil && skill.DoT != nil {
		rn.dotApps = make([][]float64, rn.sc.Targets)
	}

	segStart, k := 0.0, 0
	segInterval := rn.interval(skill.ActiveAt(0))
	for {
		t := segStart + float64(k)*segInterval
		if t >= window-eps {
			break
		}
		active := skill.ActiveAt(t)
		if iv := rn.interval(active); iv != segInterval {
			segStart, k, segInterval = t, 0, iv
		}
		k++
		rn.attackN++

		skillHit := active
		if skill != nil && skill.Trigger == model.TriggerEveryN {
			skillHit = rn.attackN%skill.EveryN == 0
		}

		raw := rn.r.Get(model.AttrAttack)
		dt := rn.r.DamageType
		src := model.SourceAttack
		if skillHit {
			raw *= rn.r.Get(model.AttrSkillMultiplier)
			src = model.SourceSkill
			if skill.DamageType != nil {
				dt = *skill.DamageType
			}
		}
		factor, crit := rn.critFactor()
		if crit {
			rn.crits++
		}
		raw *= factor

		for target := range rn.targets(skillHit) {
			eff, err := MitigateWith(rn.rules, raw, dt, rn.sc.EnemyFor(target), pen)
			if err != nil {
				return err
			}
			if err := rn.emit(model.HitEvent{
				Time:      t,
				Target:    target,
				Source:    src,
				Type:      dt,
				Raw:       raw * hits,
				Effective: eff * hits,
				Hits:      hits,
				Crit:      crit,
			}); err != nil {
				return err
			}
			if skillHit && rn.dotApps != nil {
				rn.dotApps[target] = append(rn.dotApps[target], t)
			}
		}
	}
	return nil
}

// dots layers periodic DoT ticks on top of the attack events. Every skill
// hit refreshes the DoT on its target; ticks continue until expiry.
func (rn *run) dots() error {
	if rn.dotApps == nil {
		return nil
	}
	dot := rn.r.Skill.DoT
	raw := rn.r.Get(model.AttrAttack) * dot.Ratio
	window := rn.sc.TimeWindow
	pen := rn.pen()

	for target, apps := range rn.dotApps {
		if len(apps) == 0 {
			continue
		}
		eff, err := MitigateWith(rn.rules, raw, dot.DamageType, rn.sc.EnemyFor(target), pen)
		if err != nil {
			return err
		}
		tick := func(t float64) error {
			return rn.emit(model.HitEvent{
				Time: t, Target: target, Source: model.SourceDoT, Type: dot.DamageType,
				Raw: raw, Effective: eff, Hits: 1,
			})
		}

		expiry := math.Inf(-1)
		next := 0.0
		for _, a := range apps {
			for next <= expiry+eps && next <= a {
				if err := tick(next); err != nil {
					return err
				}
				next += dot.TickInterval
			}
			if a > expiry+eps {
				next = a + dot.TickInterval
			}
			expiry = a + dot.Duration
		}
		for next <= expiry+eps && next < window-eps {
			if err := tick(next); err != nil {
				return err
			}
			next += dot.TickInterval
		}
	}
	return nil
}

// emit records one hit event, failing once the run exceeds rules.MaxEvents.
func (rn *run) emit(ev model.HitEvent) error {
	if len(rn.events) >= rn.rules.MaxEvents {
		return &model.InvalidScenarioError{
			Field:  "time_window",
			Value:  ftoa(rn.sc.TimeWindow),
			Reason: "simulation exceeds " + strconv.Itoa(rn.rules.MaxEvents) + " hit events",
		}
	}
	rn.events = append(rn.events, ev)
	return nil
}

func (rn *run) aggregate() (model.DpsResult, error) {
	window := rn.sc.TimeWindow
	res := model.DpsResult{
		Operator:   rn.r.Operator,
		Class:      rn.r.Class,
		TimeWindow: window,
		ByType:     make(map[model.DamageType]float64, len(model.DamageTypes)),
		Attacks:    rn.attackN,
		Crits:      rn.crits,
	}

	for _, ev := range rn.events {
		res.TotalDamage += ev.Effective
		res.ByType[ev.Type] += ev.Effective
	}
	res.AverageDps = res.TotalDamage / window

	res.BurstDps = rn.burst()
	res.SkillUptime, res.SustainedDps = rn.sustained(res.AverageDps)
	res.Timeline = rn.timeline()

	dph, err := rn.dph()
	if err != nil {
		return model.DpsResult{}, err
	}
	res.DPH = dph
	res.ArmorBreakPoint = ArmorBreakPoint(rn.rules, rn.r.Get(model.AttrAttack))
	res.CostEfficiency = res.AverageDps / math.Max(rn.r.Get(model.AttrCost), 1)
	res.Survivability = rn.r.Get(model.AttrHP) * (1 + rn.r.Get(model.AttrDefense)/100)
	if model.IsHealerClass(rn.r.Class) {
		// Healing is per attack; hit count only multiplies damage.
		res.HPH = rn.r.Get(model.AttrHealAmount)
		res.HPS = res.HPH / rn.interval(false)
	}

	if rn.sc.RecordEvents {
		res.Events = rn.events
	}
	return res, nil
}

// burstWindow picks the sliding window length for burst DPS.
func (rn *run) burstWindow() float64 {
	bw := rn.sc.BurstWindow
	if bw == 0 {
		bw = rn.rules.BurstWindow
		if s := rn.r.Skill; s != nil && (s.Trigger == model.TriggerTimed || s.Trigger == model.TriggerManual) {
			bw = s.Duration
		}
	}
	return math.Min(bw, rn.sc.TimeWindow)
}

// burst returns the highest damage dealt in any sliding sub-window divided
// by the window length. Events must be sorted by time.
func (rn *run) burst() float64 {
	bw := rn.burstWindow()
	if bw <= 0 || len(rn.events) == 0 {
		return 0
	}
	best, sum := 0.0, 0.0
	j := 0
	for i := range rn.events {
		for j < len(rn.events) && rn.events[j].Time < rn.events[i].Time+bw-eps {
			sum += rn.events[j].Effective
			j++
		}
		best = math.Max(best, sum)
		sum -= rn.events[i].Effective
	}
	return best / bw
}

// sustained returns skill uptime and DPS outside skill windows. Skills
// without time windows report the average DPS.
func (rn *run) sustained(avg float64) (float64, float64) {
	s := rn.r.Skill
	if s == nil || s.Trigger == model.TriggerEveryN {
		return 0, avg
	}
	window := rn.sc.TimeWindow
	if s.Trigger == model.TriggerAlways {
		return 1, avg
	}

	active := 0.0
	for t := 0.0; t < window; {
		next := math.Min(math.Max(s.NextBoundary(t), t+eps), window)
		if s.ActiveAt(t) {
			active += next - t
		}
		t = next
	}
	uptime := active / window
	off := window - active
	if off <= eps || active <= eps {
		return uptime, avg
	}

	offDamage := 0.0
	for _, ev := range rn.events {
		if !s.ActiveAt(ev.Time) {
			offDamage += ev.Effective
		}
	}
	return uptime, offDamage / off
}

// timeline samples cumulative damage every step seconds; the last point is
// always the window end.
func (rn *run) timeline() []model.TimelinePoint {
	step := rn.sc.TimelineStep
	if step == 0 {
		step = rn.rules.TimelineStep
	}
	window := rn.sc.TimeWindow
	points := make([]model.TimelinePoint, 0, int(window/step)+2)

	cum, j := 0.0, 0
	sample := func(t float64) {
		for j < len(rn.events) && rn.events[j].Time < t-eps {
			cum += rn.events[j].Effective
			j++
		}
		points = append(points, model.TimelinePoint{Time: t, Damage: cum})
	}
	for k := 0; ; k++ {
		t := float64(k) * step
		if t >= window-eps {
			break
		}
		sample(t)
	}
	for ; j < len(rn.events); j++ {
		cum += rn.events[j].Effective
	}
	points = append(points, model.TimelinePoint{Time: window, Damage: cum})
	return points
}

// dph is the expected effective damage of one off-skill attack on the first target.
func (rn *run) dph() (float64, error) {
	cc := rn.r.Get(model.AttrCritChance)
	cm := rn.r.Get(model.AttrCritMultiplier)
	raw := rn.r.Get(model.AttrAttack) * (1 + cc*(cm-1))
	eff, err := MitigateWith(rn.rules, raw, rn.r.DamageType, rn.sc.EnemyFor(0), rn.pen())
	if err != nil {
		return 0, err
	}
	return eff * rn.r.Get(model.AttrHitCount), nil
}
