package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StructuredResume mirrors the extraction schema for resumes.
type StructuredResume struct {
	PersonalInformation PersonalInformation `json:"personal_information"`
	Education           []EducationEntry    `json:"education"`
	Experience          []ExperienceEntry   `json:"experience"`
	ExperienceSummary   string              `json:"experience_summary"`
	TechnicalSkills     []string            `json:"technical_skills"`
	SoftSkills          []string            `json:"soft_skills"`
}

type PersonalInformation struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

type ExperienceEntry struct {
	Position  string `json:"position"`
	Company   string `json:"company"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// FullName joins the extracted name parts; empty when the extractor found
// no personal information.
func (r *StructuredResume) FullName() string {
	name := strings.TrimSpace(r.PersonalInformation.FirstName + " " + r.PersonalInformation.LastName)
	return name
}

// StructuredJob mirrors the extraction schema for job descriptions.
type StructuredJob struct {
	JobTitle           string   `json:"job_title"`
	ExperienceRequired string   `json:"experience_required"`
	SkillsRequired     []string `json:"skills_required"`
}

// StructuredExtractor turns raw text into schema fields via the language
// model. Running without a credential is an expected state: Configured
// reports false and the extraction methods return a structuring stage
// error, which the pipeline downgrades to raw-text-only processing.
type StructuredExtractor interface {
	Configured() bool
	ExtractResume(ctx context.Context, text string) (*StructuredResume, error)
	ExtractJob(ctx context.Context, text string) (*StructuredJob, error)
}

type structuredExtractor struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	maxRetries    int
	log           *zap.Logger
}

// NewStructuredExtractor wraps the given Gemini service. A nil gemini
// means no credential was provided; the extractor stays unconfigured.
func NewStructuredExtractor(gemini GeminiService, maxRetries int, log *zap.Logger) StructuredExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &structuredExtractor{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		log:           log.With(zap.String("service", "structured_extractor")),
	}
}

// Configured implements StructuredExtractor.
func (s *structuredExtractor) Configured() bool {
	return s.gemini != nil
}

// ExtractResume implements StructuredExtractor.
func (s *structuredExtractor) ExtractResume(ctx context.Context, text string) (*StructuredResume, error) {
	if !s.Configured() {
		return nil, NewStageError(StageStructuring, "no extraction credential configured")
	}

	prompt := s.promptBuilder.BuildResumeExtractionPrompt(text)
	response, err := s.gemini.GenerateTextWithRetry(ctx, prompt, 0.1, s.maxRetries)
	if err != nil {
		return nil, NewStageError(StageStructuring, "extraction request failed: %v", err)
	}

	var resume StructuredResume
	if err := parseJSONResponse(response, &resume); err != nil {
		s.log.Warn("malformed resume extraction response", zap.Error(err))
		return nil, NewStageError(StageStructuring, "malformed extraction response: %v", err)
	}

	resume.TechnicalSkills = NormalizeSkills(resume.TechnicalSkills)
	resume.SoftSkills = NormalizeSkills(resume.SoftSkills)
	return &resume, nil
}

// ExtractJob implements StructuredExtractor.
func (s *structuredExtractor) ExtractJob(ctx context.Context, text string) (*StructuredJob, error) {
	if !s.Configured() {
		return nil, NewStageError(StageStructuring, "no extraction credential configured")
	}

	prompt := s.promptBuilder.BuildJobExtractionPrompt(text)
	response, err := s.gemini.GenerateTextWithRetry(ctx, prompt, 0.1, s.maxRetries)
	if err != nil {
		return nil, NewStageError(StageStructuring, "extraction request failed: %v", err)
	}

	var job StructuredJob
	if err := parseJSONResponse(response, &job); err != nil {
		s.log.Warn("malformed job extraction response", zap.Error(err))
		return nil, NewStageError(StageStructuring, "malformed extraction response: %v", err)
	}

	job.SkillsRequired = NormalizeSkills(job.SkillsRequired)
	return &job, nil
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	// Find JSON object or array boundaries
	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
