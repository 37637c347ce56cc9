package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tonehaven/studiogen/internal/common"
)

// ContentType identifies one generated artifact kind
type ContentType string

const (
	ContentTypePodcast     ContentType = "podcast"
	ContentTypeSlides      ContentType = "slides"
	ContentTypeInfographic ContentType = "infographic"
	ContentTypeQuestion    ContentType = "question"
)

// IsArtifact reports whether the content type is produced by the local
// backend's studio asynchronously. Questions are answered synchronously.
func (c ContentType) IsArtifact() bool {
	switch c {
	case ContentTypePodcast, ContentTypeSlides, ContentTypeInfographic:
		return true
	}
	return false
}

// GenerationStatus tracks a single result through one orchestration call
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// GenerationRequest describes one user submission. It is ephemeral; the queue
// path persists it as one QueueItem per requested output type.
type GenerationRequest struct {
	Title         string        `json:"title" validate:"required"`
	SourceContent string        `json:"source_content" validate:"required"`
	Outputs       []ContentType `json:"outputs" validate:"dive,oneof=podcast slides infographic"`
	Question      string        `json:"question"`
	Language      string        `json:"language"`
	FocusPrompt   string        `json:"focus_prompt"`
}

var validate = validator.New()

// Validate checks the request invariants before any backend call is made.
// A request must carry at least one output type or a question.
func (r *GenerationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(r.Outputs) == 0 && r.Question == "" {
		return fmt.Errorf("request must include at least one output type or a question")
	}
	return nil
}

// Normalize fills defaulted fields in place
func (r *GenerationRequest) Normalize() {
	if r.Language == "" {
		r.Language = "he"
	}
}

// Slide is one slide of a generated deck
type Slide struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	SpeakerNotes string `json:"speaker_notes"`
}

// InfographicContent is the structured description of a generated infographic
type InfographicContent struct {
	Description string   `json:"description"`
	KeyPoints   []string `json:"key_points"`
	Style       string   `json:"style"`
}

// GenerationResult is the uniform per-output outcome of one orchestration
// call. Cloud results are terminal when returned; local studio artifacts come
// back as "processing" with NotebookID set and are finalized by the queue
// processor's status polling.
type GenerationResult struct {
	Type        ContentType         `json:"type"`
	Status      GenerationStatus    `json:"status"`
	Script      string              `json:"script,omitempty"`
	Slides      []Slide             `json:"slides,omitempty"`
	Infographic *InfographicContent `json:"infographic,omitempty"`
	Answer      string              `json:"answer,omitempty"`
	NotebookID  string              `json:"notebook_id,omitempty"` // Backend-assigned task identifier
	URL         string              `json:"url,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Terminal reports whether the result reached a final state within the
// orchestration call that produced it.
func (r *GenerationResult) Terminal() bool {
	return r.Status == GenerationCompleted || r.Status == GenerationFailed
}

// BackendStatus is the computed availability snapshot used to resolve the
// active backend for one request. It is derived fresh per call because the
// local server can be started or stopped at any time.
type BackendStatus struct {
	Mode           common.BackendMode `json:"mode"`
	LocalAvailable bool               `json:"local_available"`
	CloudAvailable bool               `json:"cloud_available"`
	ActiveBackend  BackendKind        `json:"active_backend"`
}

// BackendKind names one of the two backend families
type BackendKind string

const (
	BackendLocal BackendKind = "local"
	BackendCloud BackendKind = "cloud"
	BackendNone  BackendKind = ""
)
