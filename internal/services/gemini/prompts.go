package gemini

import (
	"fmt"
	"strings"

	"github.com/tonehaven/studiogen/internal/interfaces"
)

const podcastSystemPrompt = `You are producing a podcast episode with two hosts, Dana and Amit,
discussing educational material for voice students. Dana asks curious questions and summarizes;
Amit explains with concrete examples and practical exercises. Write the full dialogue as a script,
alternating speakers, with natural conversational flow. Output only the script text, no preamble.`

const slidesSystemPrompt = `You create presentation slide decks from source material.
Respond with a single JSON object and nothing else, in exactly this shape:
{"slides": [{"title": "...", "content": "...", "speaker_notes": "..."}]}
Aim for 6-10 slides. Content should be concise bullet-style text; speaker notes expand on it.`

const infographicSystemPrompt = `You design infographic content from source material.
Respond with a single JSON object and nothing else, in exactly this shape:
{"description": "...", "key_points": ["...", "..."], "style": "..."}
The description explains the visual layout; key points are the 4-7 facts to highlight.`

const questionSystemPrompt = `Answer the question using only the provided content.
If the answer cannot be derived from the content, say so explicitly instead of guessing.`

// languageName maps the request language code to an instruction fragment
func languageName(code string) string {
	switch code {
	case "he", "":
		return "Hebrew"
	case "en":
		return "English"
	default:
		return code
	}
}

func artifactPrompt(opts interfaces.ArtifactOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", opts.Title)
	fmt.Fprintf(&b, "Language: respond in %s.\n", languageName(opts.Language))
	if opts.FocusPrompt != "" {
		fmt.Fprintf(&b, "Focus: %s\n", opts.FocusPrompt)
	}
	fmt.Fprintf(&b, "\nSource material:\n%s\n", opts.SourceContent)
	return b.String()
}

func questionPrompt(content, question string) string {
	return fmt.Sprintf("Content:\n%s\n\nQuestion: %s", content, question)
}
