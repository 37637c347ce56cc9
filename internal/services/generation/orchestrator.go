package generation

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// Orchestrator runs one generation request end to end against whichever
// backend the selector resolves. It is the boundary that converts adapter
// errors into typed per-output results; an error return means the whole
// request failed before any output was attempted.
type Orchestrator struct {
	logger   arbor.ILogger
	selector interfaces.BackendSelector
	notebook interfaces.NotebookService
	cloud    interfaces.CloudService
}

// NewOrchestrator creates a generation orchestrator
func NewOrchestrator(selector interfaces.BackendSelector, notebook interfaces.NotebookService, cloud interfaces.CloudService, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		selector: selector,
		notebook: notebook,
		cloud:    cloud,
	}
}

// GenerateContent produces one result per requested output type, plus a final
// question result when the request carries one. Output types run in request
// order; the question always runs last. A failing output type is recorded as
// a failed result and never aborts its siblings.
func (o *Orchestrator) GenerateContent(ctx context.Context, request *models.GenerationRequest, onProgress interfaces.ProgressFunc) ([]models.GenerationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}
	request.Normalize()

	status, err := o.selector.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backend: %w", err)
	}
	if status.ActiveBackend == models.BackendNone {
		return nil, noBackendError(status.Mode)
	}

	o.logger.Info().
		Str("backend", string(status.ActiveBackend)).
		Str("title", request.Title).
		Int("outputs", len(request.Outputs)).
		Bool("question", request.Question != "").
		Msg("Starting content generation")

	if status.ActiveBackend == models.BackendLocal {
		return o.generateLocal(ctx, request, onProgress)
	}
	return o.generateCloud(ctx, request, onProgress)
}

// noBackendError builds the mode-specific fast-fail message
func noBackendError(mode common.BackendMode) error {
	switch mode {
	case common.BackendModeLocal:
		return fmt.Errorf("local backend is unavailable: the NotebookLM server did not answer its health check (mode is %q, no fallback)", mode)
	case common.BackendModeCloud:
		return fmt.Errorf("cloud backend is unavailable: no Gemini API key is configured (mode is %q, no fallback)", mode)
	default:
		return fmt.Errorf("no backend available: local server unreachable and no Gemini API key configured (mode is %q)", mode)
	}
}

// generateLocal drives the session-oriented local backend. One notebook is
// created for the whole request and the source is added once; each output
// type then issues its own create call against that notebook.
func (o *Orchestrator) generateLocal(ctx context.Context, request *models.GenerationRequest, onProgress interfaces.ProgressFunc) ([]models.GenerationResult, error) {
	notebookID, err := o.notebook.CreateNotebook(ctx, request.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}

	if err := o.notebook.AddTextSource(ctx, notebookID, request.SourceContent, request.Title); err != nil {
		return nil, fmt.Errorf("failed to add source to notebook %s: %w", notebookID, err)
	}

	opts := interfaces.ArtifactOptions{
		Title:         request.Title,
		SourceContent: request.SourceContent,
		Language:      request.Language,
		FocusPrompt:   request.FocusPrompt,
	}

	results := make([]models.GenerationResult, 0, len(request.Outputs)+1)
	accepted := 0

	for _, contentType := range request.Outputs {
		emit(onProgress, models.GenerationResult{Type: contentType, Status: models.GenerationProcessing, NotebookID: notebookID})

		var result *models.GenerationResult
		var createErr error
		switch contentType {
		case models.ContentTypePodcast:
			result, createErr = o.notebook.CreateAudioOverview(ctx, notebookID, opts)
		case models.ContentTypeSlides:
			result, createErr = o.notebook.CreateSlideDeck(ctx, notebookID, opts)
		case models.ContentTypeInfographic:
			result, createErr = o.notebook.CreateInfographic(ctx, notebookID, opts)
		default:
			createErr = fmt.Errorf("unsupported output type %q", contentType)
		}

		if createErr != nil {
			o.logger.Warn().Err(createErr).Str("type", string(contentType)).Msg("Artifact creation failed")
			failed := models.GenerationResult{
				Type:       contentType,
				Status:     models.GenerationFailed,
				NotebookID: notebookID,
				Error:      createErr.Error(),
			}
			results = append(results, failed)
			emit(onProgress, failed)
			continue
		}

		accepted++
		results = append(results, *result)
		emit(onProgress, *result)
	}

	if request.Question != "" {
		result := o.answerLocal(ctx, notebookID, request.Question, onProgress)
		results = append(results, result)
	}

	// Nothing will poll an artifact-free notebook afterwards, so it would
	// leak. Best effort; the server garbage-collects eventually anyway.
	if accepted == 0 {
		if err := o.notebook.DeleteNotebook(ctx, notebookID); err != nil {
			o.logger.Warn().Err(err).Str("notebook_id", notebookID).Msg("Failed to delete notebook after request")
		}
	}

	return results, nil
}

func (o *Orchestrator) answerLocal(ctx context.Context, notebookID, question string, onProgress interfaces.ProgressFunc) models.GenerationResult {
	emit(onProgress, models.GenerationResult{Type: models.ContentTypeQuestion, Status: models.GenerationProcessing, NotebookID: notebookID})

	answer, err := o.notebook.QueryNotebook(ctx, notebookID, question)
	result := models.GenerationResult{Type: models.ContentTypeQuestion, NotebookID: notebookID}
	if err != nil {
		o.logger.Warn().Err(err).Msg("Notebook query failed")
		result.Status = models.GenerationFailed
		result.Error = err.Error()
	} else {
		result.Status = models.GenerationCompleted
		result.Answer = answer
	}

	emit(onProgress, result)
	return result
}

// generateCloud drives the stateless cloud backend. Every output type is one
// direct call that completes or fails within this function.
func (o *Orchestrator) generateCloud(ctx context.Context, request *models.GenerationRequest, onProgress interfaces.ProgressFunc) ([]models.GenerationResult, error) {
	opts := interfaces.ArtifactOptions{
		Title:         request.Title,
		SourceContent: request.SourceContent,
		Language:      request.Language,
		FocusPrompt:   request.FocusPrompt,
	}

	results := make([]models.GenerationResult, 0, len(request.Outputs)+1)

	for _, contentType := range request.Outputs {
		emit(onProgress, models.GenerationResult{Type: contentType, Status: models.GenerationProcessing})

		result := models.GenerationResult{Type: contentType}
		switch contentType {
		case models.ContentTypePodcast:
			script, err := o.cloud.GeneratePodcastScript(ctx, opts)
			if err != nil {
				result.Status, result.Error = models.GenerationFailed, err.Error()
			} else {
				result.Status, result.Script = models.GenerationCompleted, script
			}
		case models.ContentTypeSlides:
			slides, err := o.cloud.GenerateSlides(ctx, opts)
			if err != nil {
				result.Status, result.Error = models.GenerationFailed, err.Error()
			} else {
				result.Status, result.Slides = models.GenerationCompleted, slides
			}
		case models.ContentTypeInfographic:
			content, err := o.cloud.GenerateInfographicContent(ctx, opts)
			if err != nil {
				result.Status, result.Error = models.GenerationFailed, err.Error()
			} else {
				result.Status, result.Infographic = models.GenerationCompleted, content
			}
		default:
			result.Status, result.Error = models.GenerationFailed, fmt.Sprintf("unsupported output type %q", contentType)
		}

		if result.Status == models.GenerationFailed {
			o.logger.Warn().Str("type", string(contentType)).Str("error", result.Error).Msg("Cloud generation failed")
		}

		results = append(results, result)
		emit(onProgress, result)
	}

	if request.Question != "" {
		emit(onProgress, models.GenerationResult{Type: models.ContentTypeQuestion, Status: models.GenerationProcessing})

		result := models.GenerationResult{Type: models.ContentTypeQuestion}
		answer, err := o.cloud.AnswerQuestion(ctx, request.SourceContent, request.Question)
		if err != nil {
			o.logger.Warn().Err(err).Msg("Cloud question answering failed")
			result.Status, result.Error = models.GenerationFailed, err.Error()
		} else {
			result.Status, result.Answer = models.GenerationCompleted, answer
		}

		results = append(results, result)
		emit(onProgress, result)
	}

	return results, nil
}

func emit(onProgress interfaces.ProgressFunc, result models.GenerationResult) {
	if onProgress != nil {
		onProgress(result)
	}
}
