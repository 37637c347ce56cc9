package models

// ArtifactState is the local backend's reported state for one studio job
type ArtifactState string

const (
	ArtifactInProgress ArtifactState = "in_progress"
	ArtifactCompleted  ArtifactState = "completed"
	ArtifactFailed     ArtifactState = "failed"
)

// StudioArtifact is one entry of a studio status report
type StudioArtifact struct {
	Type   ContentType   `json:"type"`
	Status ArtifactState `json:"status"`
	URL    string        `json:"url,omitempty"`
}

// StudioStatus is the local backend's asynchronous job-completion report,
// queried by polling.
type StudioStatus struct {
	NotebookID string           `json:"notebook_id"`
	Artifacts  []StudioArtifact `json:"artifacts"`
}

// Artifact returns the report entry for the given content type, or nil
func (s *StudioStatus) Artifact(contentType ContentType) *StudioArtifact {
	for i := range s.Artifacts {
		if s.Artifacts[i].Type == contentType {
			return &s.Artifacts[i]
		}
	}
	return nil
}
