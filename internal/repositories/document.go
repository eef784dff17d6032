package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"astramatch/resume-matcher/internal/models"
)

type DocumentRepository interface {
	Create(document *models.ResumeDocument) error
	FindByID(id uuid.UUID) (*models.ResumeDocument, error)
	FindByRunID(runID uuid.UUID) ([]models.ResumeDocument, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(document *models.ResumeDocument) error {
	if err := d.db.Create(&document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(id uuid.UUID) (*models.ResumeDocument, error) {
	var doc models.ResumeDocument
	if err := d.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("document not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindByRunID implements DocumentRepository. Documents come back in
// submission order so downstream tie-breaking stays stable.
func (d *documentRepository) FindByRunID(runID uuid.UUID) ([]models.ResumeDocument, error) {
	var docs []models.ResumeDocument
	if err := d.db.Where("run_id = ?", runID).Order("position ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	return docs, nil
}
