package httpdriver

import (
	"net/url"
	"sync/atomic"

	"github.com/bzeller/zypp-media-go/media"
)

// attachedMediaEntry is the driver-internal record for one attachment. It is
// only ever mutated while Driver.mu is held; the exception is useCount,
// which is an atomic counter so Provide can pin/unpin without re-acquiring
// the driver mutex on the hot path.
type attachedMediaEntry struct {
	useCount   int64
	scratchDir string
	mirrors    []*url.URL
	spec       media.MediaSpec

	// inFlight is the set of medium-relative paths with a download task
	// currently executing against this entry. Mutated only under Driver.mu.
	inFlight map[string]struct{}

	// notify is closed (and replaced with a fresh channel) every time the
	// current requester's cleanup runs, waking every waiter subscribed to
	// the old channel. This is the broadcast-via-close-and-replace pattern;
	// it stands in for the spec's watch-style broadcast channel.
	notify chan struct{}
}

func newAttachedMediaEntry(scratchDir string, mirrors []*url.URL, spec media.MediaSpec) *attachedMediaEntry {
	return &attachedMediaEntry{
		useCount:   1,
		scratchDir: scratchDir,
		mirrors:    mirrors,
		spec:       spec,
		inFlight:   make(map[string]struct{}),
		notify:     make(chan struct{}),
	}
}

func (e *attachedMediaEntry) pin() {
	atomic.AddInt64(&e.useCount, 1)
}

// unpin decrements the use-count and reports whether it reached zero.
func (e *attachedMediaEntry) unpin() bool {
	return atomic.AddInt64(&e.useCount, -1) <= 0
}

// broadcast must be called with Driver.mu held. It wakes every goroutine
// currently blocked receiving from the entry's notify channel.
func (e *attachedMediaEntry) broadcast() {
	close(e.notify)
	e.notify = make(chan struct{})
}
