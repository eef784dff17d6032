package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"astramatch/resume-matcher/internal/models"
	"astramatch/resume-matcher/internal/repositories"
	"astramatch/resume-matcher/internal/services"
)

type MatchHandler struct {
	runRepo        repositories.RunRepository
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	worker         services.Worker
	weights        services.Weights
	maxFileSize    int64
	maxResumes     int
}

func NewMatchHandler(
	runRepo repositories.RunRepository,
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	worker services.Worker,
	weights services.Weights,
	maxFileSize int64,
	maxResumes int,
) *MatchHandler {
	return &MatchHandler{
		runRepo:        runRepo,
		docRepo:        docRepo,
		storageService: storageService,
		worker:         worker,
		weights:        weights,
		maxFileSize:    maxFileSize,
		maxResumes:     maxResumes,
	}
}

// HandleMatch handles POST /match: a batch of resume files plus a job
// description, either as a form field or as an uploaded TXT file. The run
// is queued and processed asynchronously; clients poll GET /match/:id.
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	resumes := form.File["resumes"]
	if len(resumes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no candidates provided",
		})
	}
	if len(resumes) > h.maxResumes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("too many resumes: maximum is %d", h.maxResumes),
		})
	}

	jobDescription, err := h.readJobDescription(c, form)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Reject unsupported types up front so the whole batch is processable.
	for _, file := range resumes {
		if _, ok := models.FileTypeFromName(file.Filename); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("unsupported file type: %s (expected pdf, docx or txt)", file.Filename),
			})
		}
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("file too large: %s (max %d bytes)", file.Filename, h.maxFileSize),
			})
		}
	}

	run := &models.MatchRun{
		ID:               uuid.New(),
		JobDescription:   jobDescription,
		Status:           models.StatusQueued,
		WeightSimilarity: h.weights.Similarity,
		WeightExperience: h.weights.Experience,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.runRepo.Create(run); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create match run",
		})
	}

	var savedFiles []string
	cleanup := func() {
		for _, f := range savedFiles {
			h.storageService.DeleteFile(f)
		}
	}

	for position, file := range resumes {
		fileType, _ := models.FileTypeFromName(file.Filename)

		filename, filePath, err := h.storageService.SaveFile(file, fileType)
		if err != nil {
			cleanup()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save file %s: %v", file.Filename, err),
			})
		}
		savedFiles = append(savedFiles, filename)

		doc := models.ResumeDocument{
			ID:               uuid.New(),
			RunID:            run.ID,
			Filename:         filename,
			OriginalFileName: file.Filename,
			FileType:         fileType,
			FilePath:         filePath,
			Position:         position,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := h.docRepo.Create(&doc); err != nil {
			cleanup()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save document record for %s", file.Filename),
			})
		}
	}

	h.worker.EnqueueRun(run.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.MatchResponse{
		ID:     run.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// readJobDescription prefers the text field; a TXT upload is the
// alternative. A blank description is a run-level user error.
func (h *MatchHandler) readJobDescription(c *fiber.Ctx, form *multipart.Form) (string, error) {
	if values := form.Value["job_description"]; len(values) > 0 {
		if text := strings.TrimSpace(values[0]); text != "" {
			return text, nil
		}
	}

	if files := form.File["job_description_file"]; len(files) > 0 {
		file := files[0]
		if fileType, ok := models.FileTypeFromName(file.Filename); !ok || fileType != models.FileTypeTXT {
			return "", fmt.Errorf("job description file must be a TXT file")
		}

		src, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to read job description file")
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return "", fmt.Errorf("failed to read job description file")
		}

		if text := strings.TrimSpace(string(data)); text != "" {
			return text, nil
		}
	}

	return "", fmt.Errorf("job description is required")
}
