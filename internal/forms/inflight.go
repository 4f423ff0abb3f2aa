package forms

import "sync"

// inflight tracks submissions that have not returned yet, keyed by form
// action. A second submit of the same form is refused until the first
// finishes.
type inflight struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{pending: map[string]struct{}{}}
}

// acquire claims key. The returned release must be called exactly once
// when ok is true.
func (f *inflight) acquire(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.pending[key]; busy {
		return nil, false
	}
	f.pending[key] = struct{}{}
	return func() {
		f.mu.Lock()
		delete(f.pending, key)
		f.mu.Unlock()
	}, true
}
