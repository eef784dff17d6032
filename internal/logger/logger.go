// Package logger builds the application-wide zap logger and provides
// helpers for the structured fields used across the matching pipeline.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	// FieldRun is the structured log field key for the match run identifier.
	FieldRun = "run_id"
	// FieldCandidate is the structured log field key for the candidate identity.
	FieldCandidate = "candidate"
	// FieldStage is the structured log field key for the pipeline stage.
	FieldStage = "stage"
)

// New constructs a zap logger appropriate for the given environment.
// Development gets the human-readable console encoder, everything else
// the production JSON encoder.
func New(env string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)

	if env == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return log, nil
}

// WithRun attaches the run identifier to the logger. A nil logger is
// replaced with a no-op logger to avoid panics in tests.
func WithRun(log *zap.Logger, runID string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if runID == "" {
		return log
	}
	return log.With(zap.String(FieldRun, runID))
}

// WithCandidate attaches the candidate identity to the logger.
func WithCandidate(log *zap.Logger, candidate string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if candidate == "" {
		return log
	}
	return log.With(zap.String(FieldCandidate, candidate))
}

// Stage returns the standard field for a pipeline stage name.
func Stage(name string) zap.Field {
	return zap.String(FieldStage, name)
}
