package services

import (
	"fmt"
	"math"
	"sort"

	"astramatch/resume-matcher/internal/models"
)

const weightEpsilon = 1e-9

// Weights is the configurable split between the similarity percentage and
// the experience rating in the aggregate score. The pair must sum to 1.0.
type Weights struct {
	Similarity float64
	Experience float64
}

// Validate rejects negative weights and pairs that do not sum to 1.0.
func (w Weights) Validate() error {
	if w.Similarity < 0 || w.Experience < 0 {
		return fmt.Errorf("weights must be non-negative: similarity=%v experience=%v", w.Similarity, w.Experience)
	}
	if math.Abs(w.Similarity+w.Experience-1.0) > weightEpsilon {
		return fmt.Errorf("weights must sum to 1.0, got %v", w.Similarity+w.Experience)
	}
	return nil
}

// ScoredCandidate is the ranker input: one candidate after the per-stage
// pipeline ran. Position is the submission order and the tie-break key.
// A nil ExperienceRating means the rating signal is unavailable; an empty
// similarity algorithm tag means no similarity algorithm ran at all.
type ScoredCandidate struct {
	Name             string
	Position         int
	Similarity       SimilarityScore
	ExperienceRating *float64
	Explanation      *string
	Flags            []string
}

// RankedCandidate is a ranker output row.
type RankedCandidate struct {
	ScoredCandidate
	AggregateScore float64
	Rank           int
}

// Ranking is the full result: candidates in descending aggregate order
// plus the summary statistics the presentation layer needs.
type Ranking struct {
	Candidates    []RankedCandidate
	MeanScore     float64
	BestCandidate string
	TopThree      []RankedCandidate
}

type AggregateRanker interface {
	Rank(candidates []ScoredCandidate, weights Weights) (*Ranking, error)
}

type aggregateRanker struct{}

func NewAggregateRanker() AggregateRanker {
	return &aggregateRanker{}
}

// Rank implements AggregateRanker. The computation is deterministic:
// identical inputs and weights always produce identical scores and order.
func (a *aggregateRanker) Rank(candidates []ScoredCandidate, weights Weights) (*Ranking, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates provided")
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		score, flags := aggregate(c, weights)
		rc := RankedCandidate{
			ScoredCandidate: c,
			AggregateScore:  score,
		}
		rc.Flags = flags
		ranked = append(ranked, rc)
	}

	// Submission order first, then a stable sort on score, so equal
	// scores keep their original order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Position < ranked[j].Position
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AggregateScore > ranked[j].AggregateScore
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	result := &Ranking{
		Candidates:    ranked,
		BestCandidate: ranked[0].Name,
		MeanScore:     meanScore(ranked),
	}

	topN := 3
	if len(ranked) < topN {
		topN = len(ranked)
	}
	result.TopThree = ranked[:topN]

	return result, nil
}

// aggregate combines the two signals under the missing-signal policy:
// a missing rating renormalizes the similarity weight to 1.0 for that
// candidate only (flagged partial), a missing similarity does the same for
// the rating, and a candidate with no signal at all scores 0 and is
// flagged insufficient rather than dropped.
func aggregate(c ScoredCandidate, weights Weights) (float64, []string) {
	flags := append([]string(nil), c.Flags...)

	hasSimilarity := c.Similarity.Algorithm != ""
	hasRating := c.ExperienceRating != nil

	var score float64
	switch {
	case hasSimilarity && hasRating:
		ratingPct := *c.ExperienceRating / 10 * 100
		score = weights.Similarity*c.Similarity.Percent + weights.Experience*ratingPct
	case hasSimilarity:
		score = c.Similarity.Percent
		flags = appendFlag(flags, models.FlagPartialScore)
	case hasRating:
		score = *c.ExperienceRating / 10 * 100
		flags = appendFlag(flags, models.FlagPartialScore)
	default:
		score = 0
		flags = appendFlag(flags, models.FlagInsufficientData)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, flags
}

// meanScore averages the aggregate over candidates with at least one valid
// signal; insufficient-data candidates would drag the mean toward zero
// without carrying information.
func meanScore(ranked []RankedCandidate) float64 {
	var sum float64
	count := 0
	for _, rc := range ranked {
		if rc.Similarity.Algorithm == "" && rc.ExperienceRating == nil {
			continue
		}
		sum += rc.AggregateScore
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func appendFlag(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}
