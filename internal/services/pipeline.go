package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"astramatch/resume-matcher/internal/logger"
	"astramatch/resume-matcher/internal/models"
	"astramatch/resume-matcher/internal/repositories"
)

// MatcherService drives one match run end to end: job-description
// structuring, per-candidate scoring, aggregate ranking, persistence.
type MatcherService interface {
	ProcessRun(ctx context.Context, runID uuid.UUID) error
}

// MatcherOptions are the pipeline knobs frozen at construction time.
type MatcherOptions struct {
	// Parallelism bounds concurrent candidate processing; the local
	// rating model is typically single-threaded, so this stays small.
	Parallelism      int
	StructureTimeout time.Duration
	RatingTimeout    time.Duration
}

type matcherService struct {
	runRepo       repositories.RunRepository
	docRepo       repositories.DocumentRepository
	candidateRepo repositories.CandidateRepository
	extractor     TextExtractor
	structured    StructuredExtractor
	scorer        SimilarityScorer
	rater         ExperienceRater
	ranker        AggregateRanker
	opts          MatcherOptions
	log           *zap.Logger
}

func NewMatcherService(
	runRepo repositories.RunRepository,
	docRepo repositories.DocumentRepository,
	candidateRepo repositories.CandidateRepository,
	extractor TextExtractor,
	structured StructuredExtractor,
	scorer SimilarityScorer,
	rater ExperienceRater,
	opts MatcherOptions,
	log *zap.Logger,
) MatcherService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.StructureTimeout <= 0 {
		opts.StructureTimeout = 45 * time.Second
	}
	if opts.RatingTimeout <= 0 {
		opts.RatingTimeout = 90 * time.Second
	}
	return &matcherService{
		runRepo:       runRepo,
		docRepo:       docRepo,
		candidateRepo: candidateRepo,
		extractor:     extractor,
		structured:    structured,
		scorer:        scorer,
		rater:         rater,
		ranker:        NewAggregateRanker(),
		opts:          opts,
		log:           log,
	}
}

// jobContext is the per-run view of the job description after (optional)
// structuring. When structuring is unavailable both Experience and
// SimilarityText fall back to the raw description.
type jobContext struct {
	Description    string
	Experience     string
	SimilarityText string
	Structured     bool
}

// ProcessRun implements MatcherService. Per-candidate failures downgrade
// that candidate's record; only an empty upload set, a blank job
// description, or infrastructure errors fail the run.
func (m *matcherService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	log := logger.WithRun(m.log, runID.String())

	if err := m.runRepo.UpdateStatus(runID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	run, err := m.runRepo.FindByID(runID)
	if err != nil {
		m.runRepo.UpdateError(runID, err.Error())
		return fmt.Errorf("failed to load run: %w", err)
	}

	jobDescription := CleanText(run.JobDescription)
	if jobDescription == "" {
		m.runRepo.UpdateError(runID, "empty job description")
		return fmt.Errorf("empty job description")
	}

	docs, err := m.docRepo.FindByRunID(runID)
	if err != nil {
		m.runRepo.UpdateError(runID, err.Error())
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		m.runRepo.UpdateError(runID, "no candidates provided")
		return fmt.Errorf("no candidates provided")
	}

	job := m.structureJob(ctx, runID, jobDescription, log)

	// Re-running a failed run must not mix stale rows into the ranking.
	if err := m.candidateRepo.DeleteByRunID(runID); err != nil {
		log.Warn("failed to clear previous candidate results", zap.Error(err))
	}

	scored, completed := m.processCandidates(ctx, docs, job, log)

	if ctx.Err() != nil {
		// Cancelled mid-run: completed candidates stay displayable,
		// in-flight ones are abandoned.
		m.persistPartial(runID, docs, scored, completed, run, log)
		m.runRepo.UpdateError(runID, "run cancelled before completion")
		return fmt.Errorf("run cancelled: %w", ctx.Err())
	}

	weights := Weights{Similarity: run.WeightSimilarity, Experience: run.WeightExperience}
	ranking, err := m.ranker.Rank(scored, weights)
	if err != nil {
		m.runRepo.UpdateError(runID, err.Error())
		return fmt.Errorf("ranking failed: %w", err)
	}

	if err := m.persistRanking(runID, docs, ranking); err != nil {
		m.runRepo.UpdateError(runID, err.Error())
		return err
	}

	if err := m.runRepo.UpdateSummary(runID, ranking.MeanScore, ranking.BestCandidate); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	log.Info("match run completed",
		zap.Int("candidates", len(ranking.Candidates)),
		zap.Float64("mean_score", ranking.MeanScore),
		zap.String("best_candidate", ranking.BestCandidate),
	)
	return nil
}

// structureJob extracts the structured job fields when a credential is
// configured. Any failure leaves the run operating on raw text only.
func (m *matcherService) structureJob(ctx context.Context, runID uuid.UUID, jobDescription string, log *zap.Logger) jobContext {
	job := jobContext{
		Description:    jobDescription,
		Experience:     jobDescription,
		SimilarityText: jobDescription,
	}

	if !m.structured.Configured() {
		log.Info("structured extraction not configured, using raw job description", logger.Stage(StageStructuring))
		return job
	}

	sctx, cancel := context.WithTimeout(ctx, m.opts.StructureTimeout)
	defer cancel()

	structured, err := m.structured.ExtractJob(sctx, jobDescription)
	if err != nil {
		log.Warn("job structuring failed, using raw job description", logger.Stage(StageStructuring), zap.Error(err))
		return job
	}

	job.Structured = true
	if structured.ExperienceRequired != "" {
		job.Experience = structured.ExperienceRequired
	}
	if len(structured.SkillsRequired) > 0 {
		job.SimilarityText = strings.Join(structured.SkillsRequired, ", ")
	}

	skills := strings.Join(structured.SkillsRequired, ", ")
	title := structured.JobTitle
	experience := structured.ExperienceRequired
	if err := m.runRepo.UpdateJobFields(runID, &title, &experience, &skills); err != nil {
		log.Warn("failed to persist structured job fields", zap.Error(err))
	}

	return job
}

// processCandidates fans the documents out over a bounded worker set and
// joins before ranking. Each candidate record is owned by exactly one
// goroutine until the barrier.
func (m *matcherService) processCandidates(ctx context.Context, docs []models.ResumeDocument, job jobContext, log *zap.Logger) ([]ScoredCandidate, []bool) {
	scored := make([]ScoredCandidate, len(docs))
	completed := make([]bool, len(docs))

	sem := make(chan struct{}, m.opts.Parallelism)
	var wg sync.WaitGroup

	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, doc models.ResumeDocument) {
			defer wg.Done()
			defer func() { <-sem }()

			scored[i] = m.processCandidate(ctx, doc, job, log)
			if ctx.Err() == nil {
				completed[i] = true
			}
		}(i, doc)
	}

	wg.Wait()
	return scored, completed
}

// processCandidate runs the full per-candidate pipeline. Every stage
// failure is recovered into a flag; the returned record is always usable
// by the ranker.
func (m *matcherService) processCandidate(ctx context.Context, doc models.ResumeDocument, job jobContext, log *zap.Logger) ScoredCandidate {
	candidate := ScoredCandidate{
		Name:     deriveCandidateName(doc.OriginalFileName),
		Position: doc.Position,
	}
	clog := logger.WithCandidate(log, candidate.Name)

	text, err := m.extractor.Extract(doc.FilePath, doc.FileType)
	if err != nil {
		clog.Warn("text extraction failed", logger.Stage(StageExtraction), zap.Error(err))
		candidate.Flags = appendFlag(candidate.Flags, models.FlagExtractionFailed)
		text = ""
	}

	experienceText := text
	similarityText := text
	var resume *StructuredResume

	if text != "" {
		resume = m.structureResume(ctx, text, &candidate, clog)
	}
	if resume != nil {
		if name := resume.FullName(); name != "" {
			candidate.Name = name
		}
		if resume.ExperienceSummary != "" {
			experienceText = resume.ExperienceSummary
		}
		if len(resume.TechnicalSkills) > 0 {
			similarityText = strings.Join(resume.TechnicalSkills, ", ")
			if resume.ExperienceSummary != "" {
				similarityText += "\n" + resume.ExperienceSummary
			}
		}
	}

	candidate.Similarity = m.scorer.Score(ctx, similarityText, job.SimilarityText)

	if text != "" {
		m.rateExperience(ctx, experienceText, similarityText, job, &candidate, clog)
	}

	return candidate
}

func (m *matcherService) structureResume(ctx context.Context, text string, candidate *ScoredCandidate, log *zap.Logger) *StructuredResume {
	if !m.structured.Configured() {
		candidate.Flags = appendFlag(candidate.Flags, models.FlagStructuringUnavailable)
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, m.opts.StructureTimeout)
	defer cancel()

	resume, err := m.structured.ExtractResume(sctx, text)
	if err != nil {
		log.Warn("resume structuring failed, proceeding on raw text", logger.Stage(StageStructuring), zap.Error(err))
		candidate.Flags = appendFlag(candidate.Flags, models.FlagStructuringUnavailable)
		return nil
	}

	return resume
}

func (m *matcherService) rateExperience(ctx context.Context, experienceText, skillsText string, job jobContext, candidate *ScoredCandidate, log *zap.Logger) {
	rctx, cancel := context.WithTimeout(ctx, m.opts.RatingTimeout)
	defer cancel()

	rating, err := m.rater.Rate(rctx, experienceText, skillsText, job.Experience)
	if err != nil {
		log.Warn("experience rating unavailable", logger.Stage(StageRating), zap.Error(err))
		candidate.Flags = appendFlag(candidate.Flags, models.FlagRatingUnavailable)
		return
	}

	value := rating.Value
	candidate.ExperienceRating = &value
	if rating.Explanation != "" {
		explanation := rating.Explanation
		candidate.Explanation = &explanation
	}
	if rating.Malformed {
		candidate.Flags = appendFlag(candidate.Flags, models.FlagRatingMalformed)
	}
}

func (m *matcherService) persistRanking(runID uuid.UUID, docs []models.ResumeDocument, ranking *Ranking) error {
	docByPosition := make(map[int]uuid.UUID, len(docs))
	for _, doc := range docs {
		docByPosition[doc.Position] = doc.ID
	}

	rows := make([]models.CandidateResult, 0, len(ranking.Candidates))
	for _, rc := range ranking.Candidates {
		rows = append(rows, models.CandidateResult{
			ID:                  uuid.New(),
			RunID:               runID,
			DocumentID:          docByPosition[rc.Position],
			Name:                rc.Name,
			SimilarityScore:     rc.Similarity.Percent,
			SimilarityAlgorithm: rc.Similarity.Algorithm,
			ExperienceRating:    rc.ExperienceRating,
			AggregateScore:      rc.AggregateScore,
			Explanation:         rc.Explanation,
			Flags:               models.JoinFlags(rc.Flags),
			Rank:                rc.Rank,
			Position:            rc.Position,
		})
	}

	if err := m.candidateRepo.CreateBatch(rows); err != nil {
		return fmt.Errorf("failed to persist ranking: %w", err)
	}
	return nil
}

// persistPartial saves the candidates that finished before a cancellation
// so partial results stay displayable.
func (m *matcherService) persistPartial(runID uuid.UUID, docs []models.ResumeDocument, scored []ScoredCandidate, completed []bool, run *models.MatchRun, log *zap.Logger) {
	var done []ScoredCandidate
	for i, ok := range completed {
		if ok {
			done = append(done, scored[i])
		}
	}
	if len(done) == 0 {
		return
	}

	weights := Weights{Similarity: run.WeightSimilarity, Experience: run.WeightExperience}
	ranking, err := m.ranker.Rank(done, weights)
	if err != nil {
		log.Warn("failed to rank partial results", zap.Error(err))
		return
	}

	if err := m.persistRanking(runID, docs, ranking); err != nil {
		log.Warn("failed to persist partial results", zap.Error(err))
	}
}

// deriveCandidateName turns a resume filename into a display name:
// "john_doe_resume.pdf" becomes "John Doe". Used until (and unless) the
// structured extractor produces a real name.
func deriveCandidateName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")

	words := strings.Fields(base)
	for i, w := range words {
		words[i] = titleWord(w)
	}

	if len(words) >= 2 {
		return strings.Join(words[:2], " ")
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	first := strings.ToUpper(string(runes[0]))
	return first + string(runes[1:])
}
