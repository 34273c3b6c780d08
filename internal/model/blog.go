package model

import (
	"strings"
	"time"
)

// MaxSummaryWords is the upper bound on summary length, counted as
// whitespace-delimited tokens.
const MaxSummaryWords = 50

// Blog represents a post written by a doctor.
//
// IsDraft gates visibility: a draft is visible only to its owning author,
// and to everyone else it is indistinguishable from a post that does not
// exist. DoctorID is the owning author and is fixed at creation time.
type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"` // canonical token, e.g. MENTAL_HEALTH
	ImageURL  string    `json:"imageUrl,omitempty"`
	IsDraft   bool      `json:"isDraft"`
	DoctorID  string    `json:"doctorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Doctor is the embedded author projection, populated on reads.
	Doctor *Author `json:"doctor,omitempty"`
}

// WordCount returns the number of nonempty whitespace-delimited tokens in s.
// This is the counting rule used to validate summaries.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
