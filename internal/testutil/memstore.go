package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/udisondev/opdps/internal/model"
)

// MemStore is an in-memory stand-in for the PostgreSQL repositories.
// It implements the operator store directly; History and Imports return
// views implementing the calculation and import stores.
type MemStore struct {
	mu     sync.Mutex
	nextID int64

	Operators    map[int64]model.OperatorRecord
	Calculations []model.CalculationRecord
	ImportLog    []model.ImportRecord

	// FailWith, when set, is returned by operator reads and writes.
	FailWith error
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{Operators: make(map[int64]model.OperatorRecord)}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemStore) Create(_ context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return model.OperatorRecord{}, m.FailWith
	}
	for _, o := range m.Operators {
		if o.Profile.Name == rec.Profile.Name {
			return model.OperatorRecord{}, &model.DuplicateOperatorError{Name: rec.Profile.Name}
		}
	}
	rec.Profile.ID = m.id()
	m.Operators[rec.Profile.ID] = rec
	return rec, nil
}

func (m *MemStore) Upsert(_ context.Context, rec model.OperatorRecord) (model.OperatorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return model.OperatorRecord{}, m.FailWith
	}
	for id, o := range m.Operators {
		if o.Profile.Name == rec.Profile.Name {
			rec.Profile.ID = id
			m.Operators[id] = rec
			return rec, nil
		}
	}
	rec.Profile.ID = m.id()
	m.Operators[rec.Profile.ID] = rec
	return rec, nil
}

func (m *MemStore) Update(_ context.Context, rec model.OperatorRecord) (model.OperatorRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return model.OperatorRecord{}, false, m.FailWith
	}
	if _, ok := m.Operators[rec.Profile.ID]; !ok {
		return model.OperatorRecord{}, false, nil
	}
	m.Operators[rec.Profile.ID] = rec
	return rec, true, nil
}

func (m *MemStore) Get(_ context.Context, id int64) (*model.OperatorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	rec, ok := m.Operators[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemStore) List(_ context.Context, class string) ([]model.OperatorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := make([]model.OperatorRecord, 0, len(m.Operators))
	for _, o := range m.Operators {
		if class == "" || o.Profile.Class == class {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b model.OperatorRecord) int {
		return strings.Compare(a.Profile.Name, b.Profile.Name)
	})
	return out, nil
}

func (m *MemStore) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	_, ok := m.Operators[id]
	delete(m.Operators, id)
	return ok, nil
}

// History returns the calculation store view.
func (m *MemStore) History() *MemHistory {
	return &MemHistory{m: m}
}

// Imports returns the import log view.
func (m *MemStore) Imports() *MemImports {
	return &MemImports{m: m}
}

// MemHistory stores calculation records in the parent MemStore.
type MemHistory struct {
	m *MemStore
}

func (h *MemHistory) Insert(_ context.Context, rec model.CalculationRecord) (int64, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	rec.ID = h.m.id()
	h.m.Calculations = append(h.m.Calculations, rec)
	return rec.ID, nil
}

func (h *MemHistory) FindByFingerprint(_ context.Context, fp string) (*model.CalculationRecord, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	for i := len(h.m.Calculations) - 1; i >= 0; i-- {
		if h.m.Calculations[i].Fingerprint == fp {
			rec := h.m.Calculations[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Recent returns newest first.
func (h *MemHistory) Recent(_ context.Context, kind string, limit int) ([]model.CalculationRecord, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	var out []model.CalculationRecord
	for i := len(h.m.Calculations) - 1; i >= 0 && len(out) < limit; i-- {
		if kind == "" || h.m.Calculations[i].Kind == kind {
			out = append(out, h.m.Calculations[i])
		}
	}
	return out, nil
}

// MemImports stores import records in the parent MemStore.
type MemImports struct {
	m *MemStore
}

func (im *MemImports) Insert(_ context.Context, rec model.ImportRecord) (int64, error) {
	im.m.mu.Lock()
	defer im.m.mu.Unlock()
	rec.ID = im.m.id()
	im.m.ImportLog = append(im.m.ImportLog, rec)
	return rec.ID, nil
}

// Recent returns newest first.
func (im *MemImports) Recent(_ context.Context, limit int) ([]model.ImportRecord, error) {
	im.m.mu.Lock()
	defer im.m.mu.Unlock()
	out := slices.Clone(im.m.ImportLog)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
