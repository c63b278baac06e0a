package reminder

import "remindd/internal/models"

// Watcher detects edits to due/start instants between two polling
// cycles. A brand-new entity is never treated as edited; only entities
// present in both snapshots with a differing instant qualify.
type Watcher struct {
	prev map[string]int64
}

// NewWatcher creates a watcher with an empty snapshot, so the first
// refresh reports nothing edited.
func NewWatcher() *Watcher {
	return &Watcher{prev: make(map[string]int64)}
}

// Changed compares the refreshed entities against the previous snapshot
// and returns the ids whose due instant changed. The snapshot is
// replaced wholesale afterwards.
func (w *Watcher) Changed(entities []models.Entity) []string {
	var edited []string
	next := make(map[string]int64, len(entities))

	for i := range entities {
		e := &entities[i]
		next[e.ID] = e.DueAt
		if prev, ok := w.prev[e.ID]; ok && prev != e.DueAt {
			edited = append(edited, e.ID)
		}
	}

	w.prev = next
	return edited
}
