package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"astramatch/resume-matcher/internal/models"
	"astramatch/resume-matcher/internal/repositories"
)

type ResultHandler struct {
	runRepo       repositories.RunRepository
	candidateRepo repositories.CandidateRepository
}

func NewResultHandler(runRepo repositories.RunRepository, candidateRepo repositories.CandidateRepository) *ResultHandler {
	return &ResultHandler{
		runRepo:       runRepo,
		candidateRepo: candidateRepo,
	}
}

// HandleGetResult handles GET /match/:id. Completed runs carry the full
// ranking contract; failed runs carry the error message. A failed run may
// still include partially completed candidates (cancelled mid-run).
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	idParam := c.Params("id")
	runID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid match run ID format",
		})
	}

	run, err := h.runRepo.FindByID(runID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "match run not found",
		})
	}

	response := models.ResultResponse{
		ID:     run.ID.String(),
		Status: string(run.Status),
	}

	if run.Status == models.StatusCompleted || run.Status == models.StatusFailed {
		results, err := h.candidateRepo.FindByRunID(runID)
		if err == nil && len(results) > 0 {
			response.Candidates = toRankedCandidates(results)
		}
	}

	if run.Status == models.StatusCompleted && run.MeanScore != nil {
		summary := &models.RankingSummary{
			MeanScore: *run.MeanScore,
		}
		if run.BestCandidate != nil {
			summary.BestCandidate = *run.BestCandidate
		}
		topN := 3
		if len(response.Candidates) < topN {
			topN = len(response.Candidates)
		}
		summary.TopThree = response.Candidates[:topN]
		response.Summary = summary
	}

	if run.Status == models.StatusFailed && run.ErrorMessage != nil {
		response.ErrorMessage = run.ErrorMessage
	}

	return c.JSON(response)
}

func toRankedCandidates(results []models.CandidateResult) []models.RankedCandidate {
	candidates := make([]models.RankedCandidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, models.RankedCandidate{
			Rank:                r.Rank,
			Name:                r.Name,
			SimilarityScore:     r.SimilarityScore,
			SimilarityAlgorithm: r.SimilarityAlgorithm,
			ExperienceRating:    r.ExperienceRating,
			AggregateScore:      r.AggregateScore,
			Explanation:         r.Explanation,
			Flags:               r.FlagList(),
		})
	}
	return candidates
}
