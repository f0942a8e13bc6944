package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// PartialEntryQueue is the delayed queue carrying saved-but-unsubmitted
// form entries awaiting deferred tagging.
const PartialEntryQueue = "partial-entry"

// PartialEntryScope namespaces the dedupe flags for the partial-entry path.
const PartialEntryScope = "partial-entry"

// PartialEntryTask is the payload scheduled when a visitor saves an
// in-progress form entry.
type PartialEntryTask struct {
	Email string `json:"email"`
	Tag   string `json:"tag,omitempty"`
}

// Hash returns the dedupe key for this email/tag pair. The same pair must
// only be tagged once within the dedupe window regardless of how many times
// the visitor re-saves the entry.
func (t PartialEntryTask) Hash() string {
	sum := sha256.Sum256([]byte(t.Email + t.Tag))
	return hex.EncodeToString(sum[:])
}

// Encode serializes the task for the queue.
func (t PartialEntryTask) Encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodePartialEntryTask parses a queued payload.
func DecodePartialEntryTask(payload string) (PartialEntryTask, error) {
	var task PartialEntryTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return PartialEntryTask{}, err
	}
	return task, nil
}
