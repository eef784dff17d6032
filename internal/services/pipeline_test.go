package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astramatch/resume-matcher/internal/models"
)

type fakeRunRepo struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]*models.MatchRun
	errors  map[uuid.UUID]string
	summary map[uuid.UUID]float64
}

func newFakeRunRepo(runs ...*models.MatchRun) *fakeRunRepo {
	repo := &fakeRunRepo{
		runs:    make(map[uuid.UUID]*models.MatchRun),
		errors:  make(map[uuid.UUID]string),
		summary: make(map[uuid.UUID]float64),
	}
	for _, r := range runs {
		repo.runs[r.ID] = r
	}
	return repo
}

func (f *fakeRunRepo) Create(run *models.MatchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) FindByID(id uuid.UUID) (*models.MatchRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("match run not found")
	}
	return run, nil
}

func (f *fakeRunRepo) UpdateStatus(id uuid.UUID, status models.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.runs[id]; ok {
		run.Status = status
	}
	return nil
}

func (f *fakeRunRepo) UpdateJobFields(id uuid.UUID, title, experience, skills *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.runs[id]; ok {
		run.JobTitle = title
		run.JobExperience = experience
		run.JobSkills = skills
	}
	return nil
}

func (f *fakeRunRepo) UpdateSummary(id uuid.UUID, meanScore float64, bestCandidate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary[id] = meanScore
	if run, ok := f.runs[id]; ok {
		run.Status = models.StatusCompleted
		run.MeanScore = &meanScore
		run.BestCandidate = &bestCandidate
	}
	return nil
}

func (f *fakeRunRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[id] = errorMsg
	if run, ok := f.runs[id]; ok {
		run.Status = models.StatusFailed
		run.ErrorMessage = &errorMsg
	}
	return nil
}

func (f *fakeRunRepo) FindPendingRuns(limit int) ([]models.MatchRun, error) {
	return nil, nil
}

type fakeDocRepo struct {
	docs []models.ResumeDocument
}

func (f *fakeDocRepo) Create(document *models.ResumeDocument) error { return nil }

func (f *fakeDocRepo) FindByID(id uuid.UUID) (*models.ResumeDocument, error) {
	return nil, fmt.Errorf("document not found")
}

func (f *fakeDocRepo) FindByRunID(runID uuid.UUID) ([]models.ResumeDocument, error) {
	return f.docs, nil
}

type fakeCandidateRepo struct {
	mu      sync.Mutex
	created []models.CandidateResult
	deleted int
}

func (f *fakeCandidateRepo) CreateBatch(candidates []models.CandidateResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, candidates...)
	return nil
}

func (f *fakeCandidateRepo) FindByRunID(runID uuid.UUID) ([]models.CandidateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, nil
}

func (f *fakeCandidateRepo) DeleteByRunID(runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	return nil
}

// fakeExtractor maps file paths to text; missing paths fail extraction.
type fakeExtractor struct {
	texts map[string]string
}

func (f *fakeExtractor) Extract(filePath string, fileType models.FileType) (string, error) {
	if text, ok := f.texts[filePath]; ok {
		return text, nil
	}
	return "", fmt.Errorf("failed to read %s", filePath)
}

type fakeStructured struct {
	configured bool
	resume     *StructuredResume
	job        *StructuredJob
	err        error
}

func (f *fakeStructured) Configured() bool { return f.configured }

func (f *fakeStructured) ExtractResume(ctx context.Context, text string) (*StructuredResume, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resume, nil
}

func (f *fakeStructured) ExtractJob(ctx context.Context, text string) (*StructuredJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

// fakeScorer returns a fixed percentage keyed by candidate text.
type fakeScorer struct {
	scores map[string]float64
}

func (f *fakeScorer) Score(ctx context.Context, candidateText, jobText string) SimilarityScore {
	if candidateText == "" || jobText == "" {
		return SimilarityScore{}
	}
	return SimilarityScore{Percent: f.scores[candidateText], Algorithm: models.AlgorithmEmbedding}
}

type fakeRater struct {
	ratings map[string]float64
	err     error
}

func (f *fakeRater) Rate(ctx context.Context, experience, skills, jobDescription string) (*Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	value, ok := f.ratings[experience]
	if !ok {
		return nil, NewStageError(StageRating, "no rating configured")
	}
	return &Rating{Value: value, Explanation: "matched stack"}, nil
}

func newTestRun(t *testing.T, repo *fakeRunRepo, jobDescription string) *models.MatchRun {
	t.Helper()
	run := &models.MatchRun{
		ID:               uuid.New(),
		JobDescription:   jobDescription,
		Status:           models.StatusQueued,
		WeightSimilarity: 0.6,
		WeightExperience: 0.4,
	}
	require.NoError(t, repo.Create(run))
	return run
}

func testDocs(runID uuid.UUID, names ...string) []models.ResumeDocument {
	docs := make([]models.ResumeDocument, 0, len(names))
	for i, name := range names {
		docs = append(docs, models.ResumeDocument{
			ID:               uuid.New(),
			RunID:            runID,
			OriginalFileName: name,
			FileType:         models.FileTypeTXT,
			FilePath:         "/tmp/" + name,
			Position:         i,
		})
	}
	return docs
}

func TestProcessRun(t *testing.T) {
	t.Run("full run ranks all candidates and completes", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Senior Go engineer, Postgres, Kubernetes")

		docs := testDocs(run.ID, "ada_lovelace.txt", "bob_smith.txt")
		candidateRepo := &fakeCandidateRepo{}

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{docs: docs},
			candidateRepo,
			&fakeExtractor{texts: map[string]string{
				"/tmp/ada_lovelace.txt": "ada text",
				"/tmp/bob_smith.txt":    "bob text",
			}},
			&fakeStructured{},
			&fakeScorer{scores: map[string]float64{"ada text": 90, "bob text": 50}},
			&fakeRater{ratings: map[string]float64{"ada text": 9, "bob text": 4}},
			MatcherOptions{Parallelism: 2},
			nil,
		)

		require.NoError(t, matcher.ProcessRun(context.Background(), run.ID))

		assert.Equal(t, models.StatusCompleted, run.Status)
		require.NotNil(t, run.BestCandidate)
		assert.Equal(t, "Ada Lovelace", *run.BestCandidate)

		require.Len(t, candidateRepo.created, 2)
		first := candidateRepo.created[0]
		assert.Equal(t, 1, first.Rank)
		assert.Equal(t, "Ada Lovelace", first.Name)
		// 0.6*90 + 0.4*90
		assert.InDelta(t, 90, first.AggregateScore, 0.001)
	})

	t.Run("extraction failure downgrades the candidate, not the run", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Go engineer")

		docs := testDocs(run.ID, "ada_lovelace.txt", "broken_file.txt")
		candidateRepo := &fakeCandidateRepo{}

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{docs: docs},
			candidateRepo,
			&fakeExtractor{texts: map[string]string{"/tmp/ada_lovelace.txt": "ada text"}},
			&fakeStructured{},
			&fakeScorer{scores: map[string]float64{"ada text": 80}},
			&fakeRater{ratings: map[string]float64{"ada text": 8}},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		require.NoError(t, matcher.ProcessRun(context.Background(), run.ID))
		assert.Equal(t, models.StatusCompleted, run.Status)

		require.Len(t, candidateRepo.created, 2)
		var degraded *models.CandidateResult
		for i := range candidateRepo.created {
			if candidateRepo.created[i].Name == "Broken File" {
				degraded = &candidateRepo.created[i]
			}
		}
		require.NotNil(t, degraded)
		assert.Equal(t, float64(0), degraded.AggregateScore)
		assert.Contains(t, degraded.FlagList(), models.FlagExtractionFailed)
		assert.Contains(t, degraded.FlagList(), models.FlagInsufficientData)
		assert.Empty(t, degraded.SimilarityAlgorithm)
		assert.Nil(t, degraded.ExperienceRating)
	})

	t.Run("rating failure yields a partial score", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Go engineer")

		docs := testDocs(run.ID, "ada_lovelace.txt")
		candidateRepo := &fakeCandidateRepo{}

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{docs: docs},
			candidateRepo,
			&fakeExtractor{texts: map[string]string{"/tmp/ada_lovelace.txt": "ada text"}},
			&fakeStructured{},
			&fakeScorer{scores: map[string]float64{"ada text": 75}},
			&fakeRater{err: NewStageError(StageRating, "model down")},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		require.NoError(t, matcher.ProcessRun(context.Background(), run.ID))

		require.Len(t, candidateRepo.created, 1)
		result := candidateRepo.created[0]
		assert.InDelta(t, 75, result.AggregateScore, 0.001)
		assert.Contains(t, result.FlagList(), models.FlagRatingUnavailable)
		assert.Contains(t, result.FlagList(), models.FlagPartialScore)
	})

	t.Run("structured resume overrides the derived name", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Go engineer")

		docs := testDocs(run.ID, "resume_final_v2.txt")
		candidateRepo := &fakeCandidateRepo{}

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{docs: docs},
			candidateRepo,
			&fakeExtractor{texts: map[string]string{"/tmp/resume_final_v2.txt": "ada text"}},
			&fakeStructured{
				configured: true,
				resume: &StructuredResume{
					PersonalInformation: PersonalInformation{FirstName: "Ada", LastName: "Lovelace"},
					ExperienceSummary:   "built analytical engines",
					TechnicalSkills:     []string{"go", "postgres"},
				},
				job: &StructuredJob{
					JobTitle:           "Go Engineer",
					ExperienceRequired: "5 years backend",
					SkillsRequired:     []string{"go", "kubernetes"},
				},
			},
			&fakeScorer{scores: map[string]float64{"go, postgres\nbuilt analytical engines": 85}},
			&fakeRater{ratings: map[string]float64{"built analytical engines": 8}},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		require.NoError(t, matcher.ProcessRun(context.Background(), run.ID))

		require.Len(t, candidateRepo.created, 1)
		assert.Equal(t, "Ada Lovelace", candidateRepo.created[0].Name)

		// Structured job fields were persisted on the run.
		require.NotNil(t, run.JobTitle)
		assert.Equal(t, "Go Engineer", *run.JobTitle)
	})

	t.Run("empty job description fails the run", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "   \n  ")

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{},
			&fakeCandidateRepo{},
			&fakeExtractor{},
			&fakeStructured{},
			&fakeScorer{},
			&fakeRater{},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		assert.Error(t, matcher.ProcessRun(context.Background(), run.ID))
		assert.Equal(t, models.StatusFailed, run.Status)
	})

	t.Run("no documents fails the run", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Go engineer")

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{},
			&fakeCandidateRepo{},
			&fakeExtractor{},
			&fakeStructured{},
			&fakeScorer{},
			&fakeRater{},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		assert.Error(t, matcher.ProcessRun(context.Background(), run.ID))
		assert.Equal(t, models.StatusFailed, run.Status)
		assert.Equal(t, "no candidates provided", runRepo.errors[run.ID])
	})

	t.Run("cancelled context fails the run", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := newTestRun(t, runRepo, "Go engineer")

		docs := testDocs(run.ID, "ada_lovelace.txt")

		matcher := NewMatcherService(
			runRepo,
			&fakeDocRepo{docs: docs},
			&fakeCandidateRepo{},
			&fakeExtractor{texts: map[string]string{"/tmp/ada_lovelace.txt": "ada text"}},
			&fakeStructured{},
			&fakeScorer{scores: map[string]float64{"ada text": 80}},
			&fakeRater{ratings: map[string]float64{"ada text": 8}},
			MatcherOptions{Parallelism: 1},
			nil,
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, matcher.ProcessRun(ctx, run.ID))
		assert.Equal(t, models.StatusFailed, run.Status)
	})
}

func TestDeriveCandidateName(t *testing.T) {
	for _, tc := range []struct {
		filename string
		want     string
	}{
		{"john_doe_resume.pdf", "John Doe"},
		{"jane-smith.docx", "Jane Smith"},
		{"ADA_LOVELACE.txt", "Ada Lovelace"},
		{"resume.pdf", "Resume"},
		{"", ""},
	} {
		assert.Equal(t, tc.want, deriveCandidateName(tc.filename), tc.filename)
	}
}
