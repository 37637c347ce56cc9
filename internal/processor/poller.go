package processor

import (
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/models"
)

type pollOutcome int

const (
	pollContinue pollOutcome = iota
	pollCompleted
	pollFailed
	pollExhausted
)

// pollStep is the poller's verdict after observing one studio status report
type pollStep struct {
	outcome  pollOutcome
	progress int
	url      string
	message  string
}

// artifactPoller tracks one studio artifact through repeated status reports.
// It is a finite, non-restartable state machine: each Observe call consumes
// one attempt, and once a terminal step (completed, failed, exhausted) is
// returned the poller must be discarded. Progress is a heuristic ramp toward
// 95 that only reaches 100 on completion; it never moves backwards.
type artifactPoller struct {
	contentType models.ContentType
	limit       int
	attempt     int
	progress    int
}

// newArtifactPoller creates a poller with a type-dependent attempt ceiling.
// Audio synthesis takes much longer than slides or infographics, so podcasts
// get the larger budget.
func newArtifactPoller(contentType models.ContentType, config *common.ProcessorConfig) *artifactPoller {
	limit := config.StudioPollLimit
	if contentType == models.ContentTypePodcast {
		limit = config.PodcastPollLimit
	}
	if limit <= 0 {
		limit = 30
	}
	return &artifactPoller{
		contentType: contentType,
		limit:       limit,
		progress:    5,
	}
}

// Observe consumes one attempt. A poll error or an artifact missing from the
// report counts as a normal in-progress observation; transient misses never
// terminate the poller, only the attempt ceiling does.
func (p *artifactPoller) Observe(artifact *models.StudioArtifact, pollErr error) pollStep {
	p.attempt++

	if pollErr == nil && artifact != nil {
		switch artifact.Status {
		case models.ArtifactCompleted:
			p.progress = 100
			return pollStep{outcome: pollCompleted, progress: 100, url: artifact.URL}
		case models.ArtifactFailed:
			return pollStep{outcome: pollFailed, progress: p.progress, message: "studio reported the artifact as failed"}
		}
	}

	if ramped := 5 + (90*p.attempt)/p.limit; ramped > p.progress {
		p.progress = ramped
	}
	if p.progress > 95 {
		p.progress = 95
	}

	if p.attempt >= p.limit {
		return pollStep{outcome: pollExhausted, progress: p.progress}
	}
	return pollStep{outcome: pollContinue, progress: p.progress}
}
