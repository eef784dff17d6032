package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"astramatch/resume-matcher/internal/models"
)

type CandidateRepository interface {
	CreateBatch(candidates []models.CandidateResult) error
	FindByRunID(runID uuid.UUID) ([]models.CandidateResult, error)
	DeleteByRunID(runID uuid.UUID) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// CreateBatch implements CandidateRepository.
func (c *candidateRepository) CreateBatch(candidates []models.CandidateResult) error {
	if len(candidates) == 0 {
		return nil
	}
	if err := c.db.Create(&candidates).Error; err != nil {
		return fmt.Errorf("failed to create candidate results: %w", err)
	}
	return nil
}

// FindByRunID implements CandidateRepository. Results come back in rank
// order, ready for presentation.
func (c *candidateRepository) FindByRunID(runID uuid.UUID) ([]models.CandidateResult, error) {
	var results []models.CandidateResult
	if err := c.db.Where("run_id = ?", runID).Order("rank ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidate results: %w", err)
	}
	return results, nil
}

// DeleteByRunID implements CandidateRepository. Used when a run is retried
// so stale results never mix with a fresh ranking.
func (c *candidateRepository) DeleteByRunID(runID uuid.UUID) error {
	if err := c.db.Where("run_id = ?", runID).Delete(&models.CandidateResult{}).Error; err != nil {
		return fmt.Errorf("failed to delete candidate results: %w", err)
	}
	return nil
}
