package models

import (
	"time"
)

// ItemStatus is the persisted queue item state machine:
// pending -> processing -> {completed | failed}, with one recovery edge
// processing -> pending when no backend task was ever started.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// QueueItem is one (batch, output-type) unit of persisted work. Items sharing
// a BatchID were created from the same submission and are processed together
// as one orchestration call. The store is the source of truth for anything
// outside the lifetime of one orchestration call.
type QueueItem struct {
	ID              string      `badgerhold:"key" json:"id"`
	BatchID         string      `badgerhold:"index" json:"batch_id"`
	ContentType     ContentType `json:"content_type"`
	Title           string      `json:"title"`
	SourceContent   string      `json:"source_content"`
	Prompt          string      `json:"prompt,omitempty"` // Question text for question items
	Language        string      `json:"language,omitempty"`
	Status          ItemStatus  `badgerhold:"index" json:"status"`
	ProgressPercent int         `json:"progress_percent"`
	TaskID          string      `json:"task_id,omitempty"` // Backend-assigned notebook/job id, set once known
	ContentURL      string      `json:"content_url,omitempty"`
	Answer          string      `json:"answer,omitempty"` // Inline result payload: question answer, or generated content when the backend returns no URL
	ErrorMessage    string      `json:"error_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Terminal reports whether the item reached a final state
func (q *QueueItem) Terminal() bool {
	return q.Status == ItemStatusCompleted || q.Status == ItemStatusFailed
}

// Batch is a read-model grouping of queue items created from one submission
type Batch struct {
	BatchID string       `json:"batch_id"`
	Items   []*QueueItem `json:"items"`
}

// Done reports whether every item in the batch is terminal
func (b *Batch) Done() bool {
	for _, item := range b.Items {
		if !item.Terminal() {
			return false
		}
	}
	return true
}
