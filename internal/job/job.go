package job

import (
	"time"

	"github.com/google/uuid"
)

// Job is the canonical input model for one level computation.
type Job struct {
	ID          string    `json:"id"`
	Tree        string    `json:"tree"`            // level-order labels, one byte per node
	Ranks       int       `json:"ranks,omitempty"` // 0 = one rank per directed edge
	SubmittedAt time.Time `json:"-"`
}

// New returns a Job for tree with a fresh ID.
func New(tree string) *Job {
	return &Job{
		ID:          uuid.New().String(),
		Tree:        tree,
		SubmittedAt: time.Now(),
	}
}

// EnsureID assigns a fresh ID if the job has none.
func (j *Job) EnsureID() {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
}
