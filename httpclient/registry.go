package httpclient

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// callEntry is the abort handle of one in-flight call.
type callEntry struct {
	url    string
	cancel context.CancelCauseFunc
}

// registry tracks the abort handle of every in-flight call. Calls are keyed
// by a unique ID and indexed by URL, so concurrent calls to the same URL each
// keep their own handle.
type registry struct {
	mu    sync.Mutex
	calls map[string]*callEntry
	byURL map[string]map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		calls: make(map[string]*callEntry),
		byURL: make(map[string]map[string]struct{}),
	}
}

// register creates an abort handle for a call to url. The returned context is
// canceled with cause ErrCanceled when the call is aborted. release removes
// the handle and frees the context; it is safe to call more than once.
func (r *registry) register(parent context.Context, url string) (ctx context.Context, id string, release func()) {
	ctx, cancel := context.WithCancelCause(parent)
	id = uuid.NewString()

	r.mu.Lock()
	r.calls[id] = &callEntry{url: url, cancel: cancel}
	ids, ok := r.byURL[url]
	if !ok {
		ids = make(map[string]struct{})
		r.byURL[url] = ids
	}
	ids[id] = struct{}{}
	r.mu.Unlock()

	return ctx, id, func() {
		r.remove(id)
		cancel(nil)
	}
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *registry) removeLocked(id string) {
	entry, ok := r.calls[id]
	if !ok {
		return
	}
	delete(r.calls, id)
	if ids, ok := r.byURL[entry.url]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byURL, entry.url)
		}
	}
}

// cancel aborts and removes every call registered under one of urls.
// It returns the number of calls aborted.
func (r *registry) cancel(urls ...string) int {
	var aborted []context.CancelCauseFunc

	r.mu.Lock()
	for _, url := range urls {
		for id := range r.byURL[url] {
			aborted = append(aborted, r.calls[id].cancel)
			r.removeLocked(id)
		}
	}
	r.mu.Unlock()

	for _, cancel := range aborted {
		cancel(ErrCanceled)
	}
	return len(aborted)
}

// cancelAll aborts every registered call and clears the registry.
func (r *registry) cancelAll() int {
	r.mu.Lock()
	calls := r.calls
	r.calls = make(map[string]*callEntry)
	r.byURL = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, entry := range calls {
		entry.cancel(ErrCanceled)
	}
	return len(calls)
}

// pending returns the number of in-flight calls registered for url.
func (r *registry) pending(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURL[url])
}

// size returns the number of in-flight calls.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// urls returns the distinct URLs with in-flight calls.
func (r *registry) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byURL))
	for url := range r.byURL {
		out = append(out, url)
	}
	return out
}
