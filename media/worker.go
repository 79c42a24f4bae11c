package media

import (
	"context"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
)

// attachRequest is sent to a worker's dispatch loop to request an Attach
// against its driver. The reply channel is buffered so a handler's send
// never blocks even if the caller has stopped reading (cancellation).
type attachRequest struct {
	ctx   context.Context
	urls  []*url.URL
	spec  MediaSpec
	reply chan attachReply
}

type attachReply struct {
	id  uint32
	err error
}

type fetchRequest struct {
	ctx       context.Context
	attachID  uint32
	relPath   string
	fspec     FileSpec
	reply     chan fetchReply
}

type fetchReply struct {
	path string
	err  error
}

type detachRequest struct {
	attachID uint32
}

// worker owns exactly one Driver and serializes dispatch of requests
// against it: messages are received in FIFO order by a single goroutine,
// but each request's handler runs concurrently as its own goroutine, so a
// slow Fetch never starves other Fetches. The driver itself is responsible
// for serializing its own mutable state (spec.md §4.4).
type worker struct {
	driver  Driver
	inbox   chan any
	done    chan struct{}
	pending sync.WaitGroup
}

func newWorker(driver Driver) *worker {
	w := &worker{
		driver: driver,
		inbox:  make(chan any),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker) run() {
	defer close(w.done)
	for msg := range w.inbox {
		switch m := msg.(type) {
		case attachRequest:
			w.pending.Add(1)
			go w.handleAttach(m)
		case fetchRequest:
			w.pending.Add(1)
			go w.handleFetch(m)
		case detachRequest:
			w.pending.Add(1)
			go w.handleDetach(m)
		}
	}
	w.pending.Wait()
}

func (w *worker) handleAttach(req attachRequest) {
	defer w.pending.Done()
	id, err := w.driver.Attach(req.ctx, req.urls, req.spec)
	select {
	case req.reply <- attachReply{id: id, err: err}:
	default:
		// caller already stopped listening; drop the result silently per
		// spec.md §4.4 cancellation semantics.
	}
}

func (w *worker) handleFetch(req fetchRequest) {
	defer w.pending.Done()
	path, err := w.driver.Provide(req.ctx, req.attachID, req.relPath, req.fspec)
	select {
	case req.reply <- fetchReply{path: path, err: err}:
	default:
	}
}

func (w *worker) handleDetach(req detachRequest) {
	defer w.pending.Done()
	if err := w.driver.Detach(req.attachID); err != nil {
		log.Warn().Uint32("attach_id", req.attachID).Err(err).
			Msg("detach of unknown attachment id")
	}
}

// shutdown stops accepting new work and blocks until every in-flight
// handler has completed.
func (w *worker) shutdown() {
	close(w.inbox)
	<-w.done
}
