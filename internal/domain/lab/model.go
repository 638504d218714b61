package lab

import (
	"time"
)

// Enumerated test results. A NULL result means the analyzer never reported
// one; anything else outside this set is an import defect the quality checks
// must surface.
const (
	ResultPositive = "Positive"
	ResultNegative = "Negative"
)

// ValidResult reports whether r is one of the enumerated result values.
func ValidResult(r string) bool {
	return r == ResultPositive || r == ResultNegative
}

// Sample maps to the sample table: one biological sample taken from a patient.
type Sample struct {
	ID          int64      `db:"id" json:"id"`
	PatientID   int64      `db:"patient_id" json:"patient_id"`
	Site        *string    `db:"site" json:"site,omitempty"`
	CollectedAt *time.Time `db:"collected_at" json:"collected_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// LabTest maps to the lab_test table. One sample may carry multiple tests.
type LabTest struct {
	ID          int64      `db:"id" json:"id"`
	SampleID    int64      `db:"sample_id" json:"sample_id"`
	Result      *string    `db:"result" json:"result,omitempty"`
	PerformedAt *time.Time `db:"performed_at" json:"performed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// QualityReport is the output of the read-only data-quality pass. Nothing is
// repaired; the rows are listed for the operator.
type QualityReport struct {
	NullResults    int        `json:"null_results"`
	InvalidResults []*LabTest `json:"invalid_results"`
	CheckedAt      time.Time  `json:"checked_at"`
}
