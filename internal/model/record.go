package model

import "time"

// OperatorRecord is a stored operator together with the modifiers saved
// alongside it (potentials, talents, module bonuses).
type OperatorRecord struct {
	Profile   OperatorProfile `json:"profile"`
	Modifiers []Modifier      `json:"modifiers,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Calculation kinds recorded in history.
const (
	KindCalculate = "calculate"
	KindCompare   = "compare"
	KindCurve     = "curve"
)

// CalculationRecord is one history entry. Parameters and Results hold the
// JSON documents of the request and its outcome.
type CalculationRecord struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	OperatorID  *int64    `json:"operator_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Parameters  []byte    `json:"-"`
	Results     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Import statuses.
const (
	ImportSuccess = "success"
	ImportPartial = "partial"
	ImportFailed  = "failed"
)

// ImportRecord logs one data import.
type ImportRecord struct {
	ID           int64     `json:"id"`
	Format       string    `json:"format"`
	FileName     string    `json:"file_name"`
	RecordCount  int       `json:"record_count"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
