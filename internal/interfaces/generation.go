package interfaces

import (
	"context"

	"github.com/tonehaven/studiogen/internal/models"
)

// ProgressFunc receives a snapshot of a result each time it transitions state:
// once when its step starts processing and once when it reaches a terminal
// state (or is accepted by the local studio). Lets callers show live
// per-artifact progress without polling.
type ProgressFunc func(result models.GenerationResult)

// Orchestrator drives the selected backend through the multi-step generation
// pipeline for one request.
type Orchestrator interface {
	// GenerateContent resolves the active backend, runs every requested output
	// type in request order with per-type failure isolation, then the question
	// last. It returns all results including failed ones; callers inspect
	// Status per item. It returns an error only for validation failures and
	// for the no-backend-available fast-fail, before any backend call.
	GenerateContent(ctx context.Context, request *models.GenerationRequest, onProgress ProgressFunc) ([]models.GenerationResult, error)
}
