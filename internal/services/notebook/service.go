package notebook

import (
	"context"
	"fmt"

	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// Tool names exposed by the NotebookLM MCP server
const (
	toolCreateNotebook      = "create_notebook"
	toolAddTextSource       = "add_text_source"
	toolCreateAudioOverview = "create_audio_overview"
	toolCreateSlideDeck     = "create_slide_deck"
	toolCreateInfographic   = "create_infographic"
	toolGetStudioStatus     = "get_studio_status"
	toolQueryNotebook       = "query_notebook"
	toolDeleteNotebook      = "delete_notebook"
)

// CreateNotebook creates a notebook and returns its id. The server must
// return an identifier; a reply without one is a protocol error.
func (s *Service) CreateNotebook(ctx context.Context, title string) (string, error) {
	parsed, err := s.callTool(ctx, toolCreateNotebook, map[string]any{
		"title": title,
	})
	if err != nil {
		return "", err
	}

	notebookID := parsed.StringField("notebook_id", "id")
	if notebookID == "" {
		return "", fmt.Errorf("create_notebook reply missing notebook identifier")
	}

	s.logger.Info().
		Str("notebook_id", notebookID).
		Str("title", title).
		Msg("Notebook created")

	return notebookID, nil
}

// AddTextSource attaches source text to a notebook
func (s *Service) AddTextSource(ctx context.Context, notebookID, text, title string) error {
	_, err := s.callTool(ctx, toolAddTextSource, map[string]any{
		"notebook_id": notebookID,
		"text":        text,
		"title":       title,
	})
	return err
}

// CreateAudioOverview requests podcast generation. The reply only
// acknowledges acceptance; completion is observed through StudioStatus.
func (s *Service) CreateAudioOverview(ctx context.Context, notebookID string, opts interfaces.ArtifactOptions) (*models.GenerationResult, error) {
	return s.createArtifact(ctx, toolCreateAudioOverview, models.ContentTypePodcast, notebookID, opts)
}

// CreateSlideDeck requests slide deck generation (accept-only)
func (s *Service) CreateSlideDeck(ctx context.Context, notebookID string, opts interfaces.ArtifactOptions) (*models.GenerationResult, error) {
	return s.createArtifact(ctx, toolCreateSlideDeck, models.ContentTypeSlides, notebookID, opts)
}

// CreateInfographic requests infographic generation (accept-only)
func (s *Service) CreateInfographic(ctx context.Context, notebookID string, opts interfaces.ArtifactOptions) (*models.GenerationResult, error) {
	return s.createArtifact(ctx, toolCreateInfographic, models.ContentTypeInfographic, notebookID, opts)
}

func (s *Service) createArtifact(ctx context.Context, tool string, contentType models.ContentType, notebookID string, opts interfaces.ArtifactOptions) (*models.GenerationResult, error) {
	args := map[string]any{
		"notebook_id": notebookID,
	}
	if opts.Language != "" {
		args["language"] = opts.Language
	}
	if opts.FocusPrompt != "" {
		args["focus_prompt"] = opts.FocusPrompt
	}

	if _, err := s.callTool(ctx, tool, args); err != nil {
		return nil, err
	}

	// Accepted, not completed: the studio generates asynchronously and the
	// queue processor polls for the outcome.
	return &models.GenerationResult{
		Type:       contentType,
		Status:     models.GenerationProcessing,
		NotebookID: notebookID,
	}, nil
}

// StudioStatus polls the asynchronous job-completion report for a notebook
func (s *Service) StudioStatus(ctx context.Context, notebookID string) (*models.StudioStatus, error) {
	parsed, err := s.callTool(ctx, toolGetStudioStatus, map[string]any{
		"notebook_id": notebookID,
	})
	if err != nil {
		return nil, err
	}

	status := &models.StudioStatus{NotebookID: notebookID}

	if parsed.Kind != ResponseStructured {
		// Prose reply with no artifact list; nothing to reconcile yet
		return status, nil
	}

	rawArtifacts, ok := parsed.Fields["artifacts"].([]any)
	if !ok {
		return status, nil
	}

	for _, raw := range rawArtifacts {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		artifact := models.StudioArtifact{}
		if v, ok := entry["type"].(string); ok {
			artifact.Type = models.ContentType(v)
		}
		if v, ok := entry["status"].(string); ok {
			artifact.Status = normalizeArtifactState(v)
		}
		if v, ok := entry["url"].(string); ok {
			artifact.URL = v
		}
		status.Artifacts = append(status.Artifacts, artifact)
	}

	return status, nil
}

// normalizeArtifactState maps the server's status vocabulary onto ours
func normalizeArtifactState(raw string) models.ArtifactState {
	switch raw {
	case "completed", "done", "ready":
		return models.ArtifactCompleted
	case "failed", "error":
		return models.ArtifactFailed
	default:
		return models.ArtifactInProgress
	}
}

// QueryNotebook answers a question from the notebook's sources. Synchronous;
// question-answering does not go through the studio.
func (s *Service) QueryNotebook(ctx context.Context, notebookID, question string) (string, error) {
	parsed, err := s.callTool(ctx, toolQueryNotebook, map[string]any{
		"notebook_id": notebookID,
		"question":    question,
	})
	if err != nil {
		return "", err
	}

	answer := parsed.Text()
	if answer == "" {
		return "", fmt.Errorf("query_notebook returned an empty answer")
	}
	return answer, nil
}

// DeleteNotebook removes a notebook
func (s *Service) DeleteNotebook(ctx context.Context, notebookID string) error {
	_, err := s.callTool(ctx, toolDeleteNotebook, map[string]any{
		"notebook_id": notebookID,
	})
	return err
}
