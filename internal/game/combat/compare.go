package combat

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/model"
)

// Entry is one operator configuration taking part in a comparison.
type Entry struct {
	// Label distinguishes several configurations of the same operator;
	// empty means the profile name.
	Label     string                `json:"label,omitempty" yaml:"label,omitempty"`
	Profile   model.OperatorProfile `json:"profile" yaml:"profile"`
	Modifiers []model.Modifier      `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

// Identity is the name the entry is ranked and tie-broken by.
func (e Entry) Identity() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Profile.Name
}

// Comparer runs the damage engine for many operators under one scenario.
// Each simulation is independent, so entries are evaluated concurrently.
type Comparer struct {
	Rules config.Rules
	// Workers caps concurrent simulations; 0 means no cap.
	Workers int
}

// NewComparer creates a Comparer.
func NewComparer(rules config.Rules, workers int) *Comparer {
	return &Comparer{Rules: rules, Workers: workers}
}

// Compare simulates every entry against the same scenario and ranks the
// results by key, descending, with ties broken by identity. Any entry
// failing fails the whole comparison; no partial result is returned.
func (c *Comparer) Compare(ctx context.Context, entries []Entry, sc model.Scenario, key model.SortKey) (model.ComparisonResult, error) {
	if len(entries) == 0 {
		return model.ComparisonResult{}, &model.EmptyOperatorSetError{}
	}
	if err := ValidateScenario(c.Rules, sc); err != nil {
		return model.ComparisonResult{}, err
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := e.Identity()
		if _, dup := seen[id]; dup {
			return model.ComparisonResult{}, &model.DuplicateOperatorError{Name: id}
		}
		seen[id] = struct{}{}
	}

	start := time.Now()
	results := make([]model.DpsResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := Calculate(c.Rules, e.Profile, e.Modifiers, sc)
			if err != nil {
				return fmt.Errorf("operator %q: %w", e.Identity(), err)
			}
			res.Operator = e.Identity()
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ComparisonResult{}, err
	}

	out := model.ComparisonResult{
		ID:        uuid.New(),
		SortKey:   key,
		Scenario:  sc,
		CreatedAt: time.Now(),
		Entries:   Rank(results, key),
	}

	slog.Debug("comparison finished",
		"id", out.ID,
		"operators", len(entries),
		"sort_key", key,
		"elapsed", time.Since(start))

	return out, nil
}

// Rank orders results by key descending, breaking ties by operator name,
// and fills rank metadata. The input slice is not modified.
func Rank(results []model.DpsResult, key model.SortKey) []model.RankedResult {
	sorted := slices.Clone(results)
	slices.SortFunc(sorted, func(a, b model.DpsResult) int {
		if c := cmp.Compare(key.Metric(b), key.Metric(a)); c != 0 {
			return c
		}
		return strings.Compare(a.Operator, b.Operator)
	})

	ranked := make([]model.RankedResult, len(sorted))
	if len(sorted) == 0 {
		return ranked
	}
	best := key.Metric(sorted[0])
	for i, r := range sorted {
		m := key.Metric(r)
		rr := model.RankedResult{Rank: i + 1, Result: r}
		switch {
		case best > 0:
			rr.RelativeToBest = m / best
		case m == best:
			rr.RelativeToBest = 1
		}
		if i+1 < len(sorted) {
			rr.GapToNext = m - key.Metric(sorted[i+1])
		}
		ranked[i] = rr
	}
	return ranked
}
