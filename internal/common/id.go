package common

import (
	"github.com/google/uuid"
)

// NewItemID generates a unique queue item ID with the "item_" prefix
// Format: item_<uuid>
func NewItemID() string {
	return "item_" + uuid.New().String()
}

// NewBatchID generates a unique batch ID with the "batch_" prefix
// Format: batch_<uuid>
func NewBatchID() string {
	return "batch_" + uuid.New().String()
}
