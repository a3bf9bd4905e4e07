package filter

import "github.com/ALT-F4-LLC/mailvault/internal/model"

// DefaultThreadLimit is the number of threads picked when no limit is given.
const DefaultThreadLimit = 5

// ToSet converts a slice to a set for O(1) membership checks.
func ToSet[T comparable](items []T) map[T]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// ThreadPicker selects distinct thread ids from a most-recent-first stream of
// messages, skipping excluded threads, until the limit is reached.
type ThreadPicker struct {
	limit  int
	seen   map[string]struct{}
	picked []string
}

// NewThreadPicker returns a picker for up to limit new threads. A limit of
// zero or less selects DefaultThreadLimit threads.
func NewThreadPicker(limit int, exclude []string) *ThreadPicker {
	if limit <= 0 {
		limit = DefaultThreadLimit
	}
	seen := make(map[string]struct{}, len(exclude)+limit)
	for _, id := range exclude {
		seen[id] = struct{}{}
	}
	return &ThreadPicker{limit: limit, seen: seen}
}

// Offer considers a thread id and reports whether the picker is now full.
func (p *ThreadPicker) Offer(threadID string) bool {
	if p.Full() {
		return true
	}
	if _, ok := p.seen[threadID]; !ok {
		p.seen[threadID] = struct{}{}
		p.picked = append(p.picked, threadID)
	}
	return p.Full()
}

// Full reports whether the limit has been reached.
func (p *ThreadPicker) Full() bool {
	return len(p.picked) >= p.limit
}

// Threads returns the picked thread ids in the order they were first offered.
func (p *ThreadPicker) Threads() []string {
	return p.picked
}

// WithoutKeys returns the emails whose key is not in the excluded set.
func WithoutKeys(emails []*model.Email, excluded map[int64]struct{}) []*model.Email {
	if len(excluded) == 0 {
		return emails
	}
	out := make([]*model.Email, 0, len(emails))
	for _, e := range emails {
		if _, skip := excluded[e.Key]; !skip {
			out = append(out, e)
		}
	}
	return out
}
