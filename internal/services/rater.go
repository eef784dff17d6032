package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// maxExplanationLen bounds the explanation carried into results; local
// models occasionally ramble far past the requested five facts.
const maxExplanationLen = 2000

// ratingLineRe matches the rating line of the model's two-line contract.
// The prompt pins the format, but drift happens; anything that does not
// match is a malformed response, never silent garbage in the aggregate.
var ratingLineRe = regexp.MustCompile(`(?i)rating:\s*(\d+(?:\.\d+)?)\s*/\s*10`)

// Rating is the validated output of the experience rater. Malformed marks
// a numeric rating that was outside [0,10] and had to be clamped.
type Rating struct {
	Value       float64 `json:"value"`
	Explanation string  `json:"explanation"`
	Malformed   bool    `json:"malformed"`
}

// ExperienceRater scores a candidate's experience against the job
// description using a locally hosted model. "Rating unavailable" is a
// first-class state: callers receive a rating stage error and degrade the
// candidate instead of aborting the run.
type ExperienceRater interface {
	Rate(ctx context.Context, experience, skills, jobDescription string) (*Rating, error)
}

type ollamaRater struct {
	client        *resty.Client
	model         string
	promptBuilder *PromptBuilder
	log           *zap.Logger
}

// NewOllamaRater targets a local Ollama chat endpoint. The timeout bounds
// the whole request; the local model is typically single-threaded and
// slow, so this is the knob that keeps a stuck model from stalling a run.
func NewOllamaRater(endpoint, model string, timeout time.Duration, log *zap.Logger) ExperienceRater {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &ollamaRater{
		client:        client,
		model:         model,
		promptBuilder: NewPromptBuilder(),
		log:           log.With(zap.String("service", "experience_rater"), zap.String("model", model)),
	}
}

// Rate implements ExperienceRater.
func (o *ollamaRater) Rate(ctx context.Context, experience, skills, jobDescription string) (*Rating, error) {
	prompt := o.promptBuilder.BuildExperienceRatingPrompt(experience, skills, jobDescription)

	body := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/chat")
	if err != nil {
		return nil, NewStageError(StageRating, "local model unreachable: %v", err)
	}

	if !resp.IsSuccess() {
		return nil, NewStageError(StageRating, "local model returned status %d", resp.StatusCode())
	}

	content := gjson.GetBytes(resp.Body(), "message.content").String()
	if strings.TrimSpace(content) == "" {
		return nil, NewStageError(StageRating, "empty model response")
	}

	rating, err := parseRatingResponse(content)
	if err != nil {
		o.log.Warn("malformed rating response", zap.Error(err))
		return nil, err
	}

	return rating, nil
}

// parseRatingResponse validates the two-line contract: a "Rating: <n>/10"
// line and a "Conclusion:" section. Out-of-range numeric ratings are
// clamped and flagged; a missing or non-numeric rating line is a rating
// stage error.
func parseRatingResponse(content string) (*Rating, error) {
	match := ratingLineRe.FindStringSubmatch(content)
	if match == nil {
		return nil, NewStageError(StageRating, "no rating line in model output")
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil, NewStageError(StageRating, "non-numeric rating %q", match[1])
	}

	malformed := false
	if value < 0 {
		value = 0
		malformed = true
	}
	if value > 10 {
		value = 10
		malformed = true
	}

	explanation := content
	if idx := strings.Index(strings.ToLower(content), "conclusion:"); idx != -1 {
		explanation = content[idx+len("conclusion:"):]
	}
	explanation = strings.TrimSpace(explanation)
	if runes := []rune(explanation); len(runes) > maxExplanationLen {
		explanation = string(runes[:maxExplanationLen])
	}

	return &Rating{
		Value:       value,
		Explanation: explanation,
		Malformed:   malformed,
	}, nil
}
