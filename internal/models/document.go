package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// ResumeDocument is one uploaded resume file belonging to a match run.
// Position records the submission order and is the tie-break key for the
// final ranking.
type ResumeDocument struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RunID            uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FileType         FileType  `gorm:"type:text" json:"file_type"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	Position         int       `gorm:"not null" json:"position"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *ResumeDocument) TableName() string {
	return "resume_documents"
}

// FileTypeFromName maps a filename extension to a declared file type.
// Unknown extensions return false.
func FileTypeFromName(name string) (FileType, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FileTypePDF, true
	case ".docx":
		return FileTypeDOCX, true
	case ".txt":
		return FileTypeTXT, true
	}
	return "", false
}
