package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Service implements the cloud backend on the Gemini API. Every operation is
// one stateless outbound call; retries and backoff belong to the caller.
type Service struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter

	// generate is swappable for tests
	generate func(ctx context.Context, system, prompt string) (string, error)
}

// NewService creates a cloud backend adapter. A missing API key yields an
// unconfigured service; Configured reports false and every call errors.
func NewService(config *common.GeminiConfig, logger arbor.ILogger) (*Service, error) {
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	s := &Service{
		config:  config,
		logger:  logger,
		timeout: common.Duration(config.Timeout, 5*time.Minute),
		limiter: rate.NewLimiter(rate.Every(common.Duration(config.RateLimit, 4*time.Second)), 1),
	}
	s.generate = s.generateText

	if config.APIKey == "" {
		logger.Warn().Msg("Gemini API key not set; cloud backend unavailable")
		return s, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	s.client = client

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", s.timeout).
		Msg("Gemini cloud backend initialized")

	return s, nil
}

// Configured reports whether a credential is present. Pure check, no network.
func (s *Service) Configured() bool {
	return s.config.APIKey != "" && s.client != nil
}

// generateText performs one generation call with a system instruction
func (s *Service) generateText(ctx context.Context, system, prompt string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("Gemini API key is not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	startTime := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	// Iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from model")
	}

	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini generation completed")

	return response.String(), nil
}
