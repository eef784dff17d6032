package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"astramatch/resume-matcher/internal/models"
)

type RunRepository interface {
	Create(run *models.MatchRun) error
	FindByID(id uuid.UUID) (*models.MatchRun, error)
	UpdateStatus(id uuid.UUID, status models.RunStatus) error
	UpdateJobFields(id uuid.UUID, title, experience, skills *string) error
	UpdateSummary(id uuid.UUID, meanScore float64, bestCandidate string) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingRuns(limit int) ([]models.MatchRun, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *models.MatchRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create match run: %w", err)
	}
	return nil
}

func (r *runRepository) FindByID(id uuid.UUID) (*models.MatchRun, error) {
	var run models.MatchRun
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("match run not found")
		}
		return nil, fmt.Errorf("failed to find match run: %w", err)
	}
	return &run, nil
}

func (r *runRepository) UpdateStatus(id uuid.UUID, status models.RunStatus) error {
	result := r.db.Model(&models.MatchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("match run not found")
	}

	return nil
}

// UpdateJobFields stores the structured job-description fields once the
// extractor has produced them. Nil values leave the column untouched.
func (r *runRepository) UpdateJobFields(id uuid.UUID, title, experience, skills *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if title != nil {
		updates["job_title"] = *title
	}
	if experience != nil {
		updates["job_experience"] = *experience
	}
	if skills != nil {
		updates["job_skills"] = *skills
	}

	result := r.db.Model(&models.MatchRun{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update job fields: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("match run not found")
	}

	return nil
}

func (r *runRepository) UpdateSummary(id uuid.UUID, meanScore float64, bestCandidate string) error {
	result := r.db.Model(&models.MatchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.StatusCompleted,
			"mean_score":     meanScore,
			"best_candidate": bestCandidate,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update summary: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("match run not found")
	}

	return nil
}

func (r *runRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.MatchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("match run not found")
	}

	return nil
}

func (r *runRepository) FindPendingRuns(limit int) ([]models.MatchRun, error) {
	var runs []models.MatchRun
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&runs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending runs: %w", err)
	}

	return runs, nil
}
