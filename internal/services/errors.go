package services

import "fmt"

// Pipeline stage names used in stage errors and structured logs.
const (
	StageExtraction  = "extraction"
	StageStructuring = "structuring"
	StageSimilarity  = "similarity"
	StageRating      = "rating"
)

// StageError tags a failure with the pipeline stage it came from. Stage
// errors are recovered per candidate and downgraded into data-quality
// flags; they never abort a whole run.
type StageError struct {
	Stage  string
	Reason string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Reason)
}

func NewStageError(stage, format string, args ...interface{}) *StageError {
	return &StageError{
		Stage:  stage,
		Reason: fmt.Sprintf(format, args...),
	}
}
