package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// GeneratePodcastScript produces a two-host dialogue script. The reply is raw
// script text; no structured parsing is needed.
func (s *Service) GeneratePodcastScript(ctx context.Context, opts interfaces.ArtifactOptions) (string, error) {
	script, err := s.generate(ctx, podcastSystemPrompt, artifactPrompt(opts))
	if err != nil {
		return "", fmt.Errorf("podcast script generation failed: %w", err)
	}
	return script, nil
}

// GenerateSlides produces a slide deck. When the model's reply is not the
// requested JSON shape, the raw text is wrapped in a single pseudo-slide
// instead of failing the whole call.
func (s *Service) GenerateSlides(ctx context.Context, opts interfaces.ArtifactOptions) ([]models.Slide, error) {
	raw, err := s.generate(ctx, slidesSystemPrompt, artifactPrompt(opts))
	if err != nil {
		return nil, fmt.Errorf("slide generation failed: %w", err)
	}

	if jsonText, ok := ExtractJSONObject(raw); ok {
		var payload struct {
			Slides []models.Slide `json:"slides"`
		}
		if err := json.Unmarshal([]byte(jsonText), &payload); err == nil && len(payload.Slides) > 0 {
			return payload.Slides, nil
		}
	}

	s.logger.Warn().
		Int("response_length", len(raw)).
		Msg("Slide reply was not well-formed JSON; degrading to a single slide")

	return []models.Slide{{
		Title:   opts.Title,
		Content: raw,
	}}, nil
}

// GenerateInfographicContent produces a structured infographic description
// with the same JSON-extraction-with-fallback pattern as GenerateSlides.
func (s *Service) GenerateInfographicContent(ctx context.Context, opts interfaces.ArtifactOptions) (*models.InfographicContent, error) {
	raw, err := s.generate(ctx, infographicSystemPrompt, artifactPrompt(opts))
	if err != nil {
		return nil, fmt.Errorf("infographic generation failed: %w", err)
	}

	if jsonText, ok := ExtractJSONObject(raw); ok {
		var content models.InfographicContent
		if err := json.Unmarshal([]byte(jsonText), &content); err == nil && content.Description != "" {
			return &content, nil
		}
	}

	s.logger.Warn().
		Int("response_length", len(raw)).
		Msg("Infographic reply was not well-formed JSON; using raw text as description")

	return &models.InfographicContent{Description: raw}, nil
}

// AnswerQuestion answers strictly from the given content. The system
// instruction tells the model to say when the answer is not derivable rather
// than invent one.
func (s *Service) AnswerQuestion(ctx context.Context, content, question string) (string, error) {
	answer, err := s.generate(ctx, questionSystemPrompt, questionPrompt(content, question))
	if err != nil {
		return "", fmt.Errorf("question answering failed: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("model returned an empty answer")
	}
	return answer, nil
}
