package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
)

func newTestService(t *testing.T, reply string, replyErr error) *Service {
	t.Helper()
	s, err := NewService(&common.GeminiConfig{Model: "test-model"}, arbor.NewLogger())
	require.NoError(t, err)
	s.generate = func(ctx context.Context, system, prompt string) (string, error) {
		return reply, replyErr
	}
	return s
}

func testOptions() interfaces.ArtifactOptions {
	return interfaces.ArtifactOptions{
		Title:         "Breath Support",
		SourceContent: "Diaphragmatic breathing keeps the tone steady.",
		Language:      "he",
	}
}

func TestConfiguredWithoutAPIKey(t *testing.T) {
	s, err := NewService(&common.GeminiConfig{}, arbor.NewLogger())
	require.NoError(t, err)
	assert.False(t, s.Configured())

	_, err = s.generateText(context.Background(), "", "prompt")
	assert.Error(t, err)
}

func TestGeneratePodcastScript(t *testing.T) {
	s := newTestService(t, "Dana: Welcome back!\nAmit: Today we cover breath support.", nil)

	script, err := s.GeneratePodcastScript(context.Background(), testOptions())
	require.NoError(t, err)
	assert.Contains(t, script, "Dana:")
}

func TestGeneratePodcastScriptError(t *testing.T) {
	s := newTestService(t, "", fmt.Errorf("quota exceeded"))

	_, err := s.GeneratePodcastScript(context.Background(), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateSlidesParsesJSON(t *testing.T) {
	reply := "Sure, here is the deck:\n" +
		`{"slides": [{"title": "Posture", "content": "Stand tall", "speaker_notes": "Demonstrate"}]}`
	s := newTestService(t, reply, nil)

	slides, err := s.GenerateSlides(context.Background(), testOptions())
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "Posture", slides[0].Title)
	assert.Equal(t, "Demonstrate", slides[0].SpeakerNotes)
}

func TestGenerateSlidesDegradesToSingleSlide(t *testing.T) {
	reply := "Slide 1: Posture. Slide 2: Breathing. No JSON here."
	s := newTestService(t, reply, nil)

	slides, err := s.GenerateSlides(context.Background(), testOptions())
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "Breath Support", slides[0].Title)
	assert.Equal(t, reply, slides[0].Content)
}

func TestGenerateInfographicParsesJSON(t *testing.T) {
	reply := `{"description": "vertical timeline", "key_points": ["inhale low", "exhale slow"], "style": "minimal"}`
	s := newTestService(t, reply, nil)

	content, err := s.GenerateInfographicContent(context.Background(), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "vertical timeline", content.Description)
	assert.Len(t, content.KeyPoints, 2)
}

func TestGenerateInfographicDegradesToRawDescription(t *testing.T) {
	reply := "A timeline showing the four stages of a breath cycle."
	s := newTestService(t, reply, nil)

	content, err := s.GenerateInfographicContent(context.Background(), testOptions())
	require.NoError(t, err)
	assert.Equal(t, reply, content.Description)
	assert.Empty(t, content.KeyPoints)
}

func TestAnswerQuestion(t *testing.T) {
	s := newTestService(t, "The diaphragm drives steady airflow.", nil)

	answer, err := s.AnswerQuestion(context.Background(), "content", "What drives airflow?")
	require.NoError(t, err)
	assert.Contains(t, answer, "diaphragm")
}

func TestAnswerQuestionEmptyReply(t *testing.T) {
	s := newTestService(t, "   ", nil)

	_, err := s.AnswerQuestion(context.Background(), "content", "What drives airflow?")
	assert.Error(t, err)
}

func TestArtifactPromptIncludesFocus(t *testing.T) {
	opts := testOptions()
	opts.FocusPrompt = "emphasize warm-up routines"

	prompt := artifactPrompt(opts)
	assert.Contains(t, prompt, "Breath Support")
	assert.Contains(t, prompt, "Hebrew")
	assert.Contains(t, prompt, "emphasize warm-up routines")
	assert.Contains(t, prompt, opts.SourceContent)
}
