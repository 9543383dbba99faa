// Package service joins the damage engine with operator storage and the
// calculation history. The HTTP API and the CLI both go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/game/combat"
	"github.com/udisondev/opdps/internal/game/stat"
	"github.com/udisondev/opdps/internal/model"
)

var (
	// ErrOperatorNotFound is returned when a request references an unknown operator ID.
	ErrOperatorNotFound = errors.New("operator not found")
	// ErrInvalidRequest marks request parameters outside their allowed values.
	ErrInvalidRequest = errors.New("invalid request")
)

// DefaultHistoryLimit bounds history listings when the caller gives no limit.
const DefaultHistoryLimit = 50

// OperatorStore persists operator profiles.
type OperatorStore interface {
	Create(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error)
	Upsert(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error)
	Update(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, bool, error)
	Get(ctx context.Context, id int64) (*model.OperatorRecord, error)
	List(ctx context.Context, class string) ([]model.OperatorRecord, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// HistoryStore persists calculation records.
type HistoryStore interface {
	Insert(ctx context.Context, rec model.CalculationRecord) (int64, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*model.CalculationRecord, error)
	Recent(ctx context.Context, kind string, limit int) ([]model.CalculationRecord, error)
}

// ImportStore persists the import log.
type ImportStore interface {
	Insert(ctx context.Context, rec model.ImportRecord) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.ImportRecord, error)
}

// Calculator runs calculations against stored or inline operators and
// records every run in the history.
type Calculator struct {
	rules    config.Rules
	scenario model.Scenario
	comparer *combat.Comparer

	operators OperatorStore
	history   HistoryStore
	imports   ImportStore
}

// New creates a Calculator. cfg supplies the engine rules, the default
// scenario and the comparison worker limit.
func New(cfg config.App, operators OperatorStore, history HistoryStore, imports ImportStore) *Calculator {
	return &Calculator{
		rules:     cfg.Rules,
		scenario:  cfg.Scenario,
		comparer:  combat.NewComparer(cfg.Rules, cfg.Workers),
		operators: operators,
		history:   history,
		imports:   imports,
	}
}

// Rules returns the engine constants in use.
func (c *Calculator) Rules() config.Rules {
	return c.rules
}

// DefaultScenario returns the scenario applied when a request omits one.
func (c *Calculator) DefaultScenario() model.Scenario {
	return c.scenario
}

// CreateOperator validates and stores a new operator.
func (c *Calculator) CreateOperator(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	if err := validateRecord(rec); err != nil {
		return model.OperatorRecord{}, err
	}
	out, err := c.operators.Create(ctx, rec)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	slog.Info("operator created", "id", out.Profile.ID, "name", out.Profile.Name)
	return out, nil
}

// UpdateOperator validates and replaces a stored operator.
func (c *Calculator) UpdateOperator(ctx context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	if err := validateRecord(rec); err != nil {
		return model.OperatorRecord{}, err
	}
	out, ok, err := c.operators.Update(ctx, rec)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	if !ok {
		return model.OperatorRecord{}, fmt.Errorf("operator %d: %w", rec.Profile.ID, ErrOperatorNotFound)
	}
	return out, nil
}

// Operator loads one stored operator.
func (c *Calculator) Operator(ctx context.Context, id int64) (model.OperatorRecord, error) {
	rec, err := c.operators.Get(ctx, id)
	if err != nil {
		return model.OperatorRecord{}, err
	}
	if rec == nil {
		return model.OperatorRecord{}, fmt.Errorf("operator %d: %w", id, ErrOperatorNotFound)
	}
	return *rec, nil
}

// Operators lists stored operators, optionally filtered by class.
func (c *Calculator) Operators(ctx context.Context, class string) ([]model.OperatorRecord, error) {
	return c.operators.List(ctx, class)
}

// DeleteOperator removes a stored operator.
func (c *Calculator) DeleteOperator(ctx context.Context, id int64) error {
	ok, err := c.operators.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("operator %d: %w", id, ErrOperatorNotFound)
	}
	slog.Info("operator deleted", "id", id)
	return nil
}

// History lists recent calculation records of kind ("" for all kinds).
func (c *Calculator) History(ctx context.Context, kind string, limit int) ([]model.CalculationRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return c.history.Recent(ctx, kind, limit)
}

// Imports lists the most recent imports.
func (c *Calculator) Imports(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return c.imports.Recent(ctx, limit)
}

// validateRecord resolves the stored modifiers against the profile so that
// unusable operators are rejected when saved rather than when calculated.
func validateRecord(rec model.OperatorRecord) error {
	if rec.Profile.Name == "" {
		return &model.InvalidProfileError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := stat.Resolve(rec.Profile, rec.Modifiers); err != nil {
		return err
	}
	return nil
}
