package patient

import (
	"time"
)

// Age-group buckets used by the treatment-success report.
const (
	AgeGroupUnder30 = "<30"
	AgeGroup30To50  = "30-50"
	AgeGroupOver50  = ">50"
)

// Patient maps to the patient table. IDs are BIGINT across the whole schema;
// patient_code is the unique business identifier carried by the import feed.
type Patient struct {
	ID          int64     `db:"id" json:"id"`
	PatientCode string    `db:"patient_code" json:"patient_code"`
	FullName    *string   `db:"full_name" json:"full_name,omitempty"`
	DOB         time.Time `db:"dob" json:"dob"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AgeOn returns the patient's age on the given date as a calendar-year
// difference. Month and day are ignored on purpose: the reporting buckets are
// defined on year subtraction, and the SQL side computes the same value with
// EXTRACT(YEAR ...), so the two must not drift apart.
func (p *Patient) AgeOn(t time.Time) int {
	return t.Year() - p.DOB.Year()
}

// AgeGroupOn returns the reporting bucket for the patient's age on the given
// date.
func (p *Patient) AgeGroupOn(t time.Time) string {
	return AgeGroup(p.AgeOn(t))
}

// AgeGroup buckets an age. 30 and 50 both fall in the middle bucket.
func AgeGroup(age int) string {
	switch {
	case age < 30:
		return AgeGroupUnder30
	case age <= 50:
		return AgeGroup30To50
	default:
		return AgeGroupOver50
	}
}

// Counts holds the per-patient record counts used by the summary endpoint.
type Counts struct {
	Samples    int `json:"samples"`
	Tests      int `json:"tests"`
	Treatments int `json:"treatments"`
}

// Summary is the derived per-patient view returned by GET /patients/:id/summary.
type Summary struct {
	Patient  *Patient `json:"patient"`
	Age      int      `json:"age"`
	AgeGroup string   `json:"age_group"`
	Counts   Counts   `json:"counts"`
}
