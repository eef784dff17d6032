package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Data-quality flags recorded per candidate. A flagged candidate is always
// part of the result set; flags tell the presentation layer which signals
// were degraded or missing.
const (
	FlagExtractionFailed       = "extraction_failed"
	FlagStructuringUnavailable = "structuring_unavailable"
	FlagRatingUnavailable      = "rating_unavailable"
	FlagRatingMalformed        = "rating_malformed"
	FlagPartialScore           = "partial_score"
	FlagInsufficientData       = "insufficient_data"
)

// Similarity algorithm tags. Empty means the degenerate both-inputs-empty
// case where no algorithm ran at all.
const (
	AlgorithmEmbedding = "embedding"
	AlgorithmFallback  = "fallback"
)

// CandidateResult is the persisted outcome of scoring a single resume
// against the run's job description.
type CandidateResult struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RunID               uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	DocumentID          uuid.UUID `gorm:"type:uuid;not null" json:"document_id"`
	Name                string    `gorm:"type:text" json:"name"`
	SimilarityScore     float64   `gorm:"type:decimal(5,2)" json:"similarity_score"`
	SimilarityAlgorithm string    `gorm:"type:text" json:"similarity_algorithm"`
	ExperienceRating    *float64  `gorm:"type:decimal(4,2)" json:"experience_rating,omitempty"`
	AggregateScore      float64   `gorm:"type:decimal(5,2)" json:"aggregate_score"`
	Explanation         *string   `gorm:"type:text" json:"explanation,omitempty"`
	Flags               string    `gorm:"type:text" json:"flags"`
	Rank                int       `gorm:"not null" json:"rank"`
	Position            int       `gorm:"not null" json:"position"`
	CreatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CandidateResult) TableName() string {
	return "candidate_results"
}

// FlagList splits the stored flag column back into individual flags.
func (c *CandidateResult) FlagList() []string {
	if c.Flags == "" {
		return nil
	}
	return strings.Split(c.Flags, ",")
}

// JoinFlags serializes flags for storage, dropping empties.
func JoinFlags(flags []string) string {
	var kept []string
	for _, f := range flags {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, ",")
}
