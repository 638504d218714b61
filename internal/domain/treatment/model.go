package treatment

import (
	"time"
)

// OutcomeSuccessful is the outcome value the success-rate report counts.
// Other outcomes (e.g. "Failed", "Ongoing") are free-form.
const OutcomeSuccessful = "Successful"

// Treatment maps to the treatment table. A patient may have any number of
// treatments, including none.
type Treatment struct {
	ID        int64      `db:"id" json:"id"`
	PatientID int64      `db:"patient_id" json:"patient_id"`
	Outcome   string     `db:"outcome" json:"outcome"`
	StartedAt *time.Time `db:"started_at" json:"started_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// IsSuccessful reports whether this treatment counts toward the success rate.
func (t *Treatment) IsSuccessful() bool {
	return t.Outcome == OutcomeSuccessful
}
