package interfaces

import (
	"context"

	"github.com/tonehaven/studiogen/internal/models"
)

// ArtifactOptions carries per-artifact generation parameters shared by both
// backend families.
type ArtifactOptions struct {
	Title         string
	SourceContent string
	Language      string
	FocusPrompt   string
}

// NotebookService wraps the local session-oriented NotebookLM server. A
// session is established once and reused; artifact creation calls return once
// the server accepts the job, not once it completes. Completion is observed
// through StudioStatus polling.
type NotebookService interface {
	// CreateNotebook creates a notebook and returns its backend-assigned id.
	// Fails if the server's reply omits an identifier.
	CreateNotebook(ctx context.Context, title string) (string, error)

	// AddTextSource attaches source text to a notebook.
	AddTextSource(ctx context.Context, notebookID, text, title string) error

	// CreateAudioOverview requests podcast generation (accept-only).
	CreateAudioOverview(ctx context.Context, notebookID string, opts ArtifactOptions) (*models.GenerationResult, error)

	// CreateSlideDeck requests slide deck generation (accept-only).
	CreateSlideDeck(ctx context.Context, notebookID string, opts ArtifactOptions) (*models.GenerationResult, error)

	// CreateInfographic requests infographic generation (accept-only).
	CreateInfographic(ctx context.Context, notebookID string, opts ArtifactOptions) (*models.GenerationResult, error)

	// StudioStatus polls the asynchronous job-completion report for a notebook.
	StudioStatus(ctx context.Context, notebookID string) (*models.StudioStatus, error)

	// QueryNotebook answers a question from the notebook's sources synchronously.
	QueryNotebook(ctx context.Context, notebookID, question string) (string, error)

	// DeleteNotebook removes a notebook.
	DeleteNotebook(ctx context.Context, notebookID string) error

	// HealthCheck probes the server's unauthenticated health endpoint with a
	// bounded timeout. Any error or timeout means unavailable.
	HealthCheck(ctx context.Context) error

	// ResetSession clears the cached session so the next call re-initializes.
	// Called when a caller detects repeated protocol failures.
	ResetSession()
}

// CloudService wraps the stateless Gemini generation API. One outbound call
// per artifact; no session or notebook concept; no retry inside the adapter.
type CloudService interface {
	// GeneratePodcastScript produces a two-host dialogue script.
	GeneratePodcastScript(ctx context.Context, opts ArtifactOptions) (string, error)

	// GenerateSlides produces a slide deck. A malformed model reply degrades to
	// a single pseudo-slide wrapping the raw text rather than an error.
	GenerateSlides(ctx context.Context, opts ArtifactOptions) ([]models.Slide, error)

	// GenerateInfographicContent produces a structured infographic description
	// with the same degradation behavior as GenerateSlides.
	GenerateInfographicContent(ctx context.Context, opts ArtifactOptions) (*models.InfographicContent, error)

	// AnswerQuestion answers a question strictly from the given content.
	AnswerQuestion(ctx context.Context, content, question string) (string, error)

	// Configured reports whether a credential is present. Pure check, no
	// network call.
	Configured() bool
}

// BackendSelector computes the active backend for a request from the persisted
// mode preference and live availability probes.
type BackendSelector interface {
	// Status probes both backends and resolves the active one for the
	// configured mode. Availability is time-varying, so callers must not cache
	// the result beyond a request.
	Status(ctx context.Context) (*models.BackendStatus, error)

	// Mode returns the currently persisted backend mode.
	Mode(ctx context.Context) (*models.BackendSettings, error)

	// SetMode persists a new backend mode preference.
	SetMode(ctx context.Context, mode string) (*models.BackendSettings, error)
}
