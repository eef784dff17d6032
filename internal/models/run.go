package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// MatchRun is one ranking request: a job description plus a batch of
// uploaded resumes. Summary fields are populated when the run completes.
// The weights are frozen per run so results stay reproducible even if the
// service configuration changes afterwards.
type MatchRun struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobTitle         *string   `gorm:"type:text" json:"job_title,omitempty"`
	JobDescription   string    `gorm:"type:text;not null" json:"job_description"`
	JobExperience    *string   `gorm:"type:text" json:"job_experience,omitempty"`
	JobSkills        *string   `gorm:"type:text" json:"job_skills,omitempty"`
	Status           RunStatus `gorm:"not null;default:'queued'" json:"status"`
	WeightSimilarity float64   `gorm:"not null" json:"weight_similarity"`
	WeightExperience float64   `gorm:"not null" json:"weight_experience"`
	MeanScore        *float64  `gorm:"type:decimal(5,2)" json:"mean_score,omitempty"`
	BestCandidate    *string   `gorm:"type:text" json:"best_candidate,omitempty"`
	ErrorMessage     *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MatchRun) TableName() string {
	return "match_runs"
}
