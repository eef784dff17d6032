package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astramatch/resume-matcher/internal/models"
)

func newResultApp(runRepo *fakeRunRepo, candidateRepo *fakeCandidateRepo) *fiber.App {
	app := fiber.New()
	app.Get("/api/v1/match/:id", NewResultHandler(runRepo, candidateRepo).HandleGetResult)
	return app
}

func getResult(t *testing.T, app *fiber.App, id string) (*http.Response, models.ResultResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/match/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body models.ResultResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestHandleGetResult(t *testing.T) {
	t.Run("rejects a malformed run ID", func(t *testing.T) {
		app := newResultApp(newFakeRunRepo(), &fakeCandidateRepo{})

		resp, _ := getResult(t, app, "not-a-uuid")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown run is a 404", func(t *testing.T) {
		app := newResultApp(newFakeRunRepo(), &fakeCandidateRepo{})

		resp, _ := getResult(t, app, uuid.New().String())
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("queued run carries status only", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		run := &models.MatchRun{ID: uuid.New(), Status: models.StatusQueued}
		require.NoError(t, runRepo.Create(run))

		app := newResultApp(runRepo, &fakeCandidateRepo{})

		resp, body := getResult(t, app, run.ID.String())
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, string(models.StatusQueued), body.Status)
		assert.Empty(t, body.Candidates)
		assert.Nil(t, body.Summary)
	})

	t.Run("completed run carries the full ranking", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		mean := 75.0
		best := "Ada Lovelace"
		run := &models.MatchRun{
			ID:            uuid.New(),
			Status:        models.StatusCompleted,
			MeanScore:     &mean,
			BestCandidate: &best,
		}
		require.NoError(t, runRepo.Create(run))

		rating := 9.0
		candidateRepo := &fakeCandidateRepo{results: []models.CandidateResult{
			{
				RunID:               run.ID,
				Name:                "Ada Lovelace",
				SimilarityScore:     90,
				SimilarityAlgorithm: models.AlgorithmEmbedding,
				ExperienceRating:    &rating,
				AggregateScore:      90,
				Rank:                1,
			},
			{
				RunID:               run.ID,
				Name:                "Bob Smith",
				SimilarityScore:     60,
				SimilarityAlgorithm: models.AlgorithmFallback,
				AggregateScore:      60,
				Flags:               models.FlagPartialScore,
				Rank:                2,
			},
		}}

		app := newResultApp(runRepo, candidateRepo)

		resp, body := getResult(t, app, run.ID.String())
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, string(models.StatusCompleted), body.Status)

		require.Len(t, body.Candidates, 2)
		assert.Equal(t, "Ada Lovelace", body.Candidates[0].Name)
		assert.Equal(t, models.AlgorithmEmbedding, body.Candidates[0].SimilarityAlgorithm)
		assert.Contains(t, body.Candidates[1].Flags, models.FlagPartialScore)

		require.NotNil(t, body.Summary)
		assert.Equal(t, 75.0, body.Summary.MeanScore)
		assert.Equal(t, "Ada Lovelace", body.Summary.BestCandidate)
		assert.Len(t, body.Summary.TopThree, 2)
	})

	t.Run("failed run carries the error message", func(t *testing.T) {
		runRepo := newFakeRunRepo()
		msg := "empty job description"
		run := &models.MatchRun{
			ID:           uuid.New(),
			Status:       models.StatusFailed,
			ErrorMessage: &msg,
		}
		require.NoError(t, runRepo.Create(run))

		app := newResultApp(runRepo, &fakeCandidateRepo{})

		resp, body := getResult(t, app, run.ID.String())
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, string(models.StatusFailed), body.Status)
		require.NotNil(t, body.ErrorMessage)
		assert.Equal(t, msg, *body.ErrorMessage)
	})
}
