package models

// MatchResponse is returned when a run is accepted for processing.
type MatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RankedCandidate is the per-candidate contract consumed by the
// presentation layer.
type RankedCandidate struct {
	Rank                int      `json:"rank"`
	Name                string   `json:"name"`
	SimilarityScore     float64  `json:"similarity_score"`
	SimilarityAlgorithm string   `json:"similarity_algorithm"`
	ExperienceRating    *float64 `json:"experience_rating"`
	AggregateScore      float64  `json:"aggregate_score"`
	Explanation         *string  `json:"explanation"`
	Flags               []string `json:"flags"`
}

// RankingSummary carries the run-level statistics: mean aggregate score
// over candidates with at least one valid signal, the best candidate, and
// the top three of the sorted list.
type RankingSummary struct {
	MeanScore     float64           `json:"mean_score"`
	BestCandidate string            `json:"best_candidate"`
	TopThree      []RankedCandidate `json:"top_three"`
}

// ResultResponse is the payload of GET /match/:id.
type ResultResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Candidates   []RankedCandidate `json:"candidates,omitempty"`
	Summary      *RankingSummary   `json:"summary,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
}
