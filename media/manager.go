package media

import (
	"context"
	"net/url"
	"runtime"
	"sync"
	"weak"
)

// Manager is the public façade: it owns a set of workers keyed by internal
// driver id, routes Attach to a scheme-matching driver, and routes
// subsequent Fetch calls to the worker that produced the attachment.
type Manager struct {
	mu           sync.Mutex
	nextDriverID uint32
	drivers      map[uint32]*driverHandle
}

type driverHandle struct {
	worker  *worker
	schemes map[string]struct{}
}

func (h *driverHandle) supports(scheme string) bool {
	_, ok := h.schemes[scheme]
	return ok
}

// NewManager constructs an empty Manager with no drivers registered. Most
// callers want httpdriver.NewManager, which also registers the bundled HTTP
// driver.
func NewManager() *Manager {
	return &Manager{drivers: make(map[uint32]*driverHandle)}
}

// AddDriver registers driver under a new internal id and spawns its worker.
func (m *Manager) AddDriver(driver Driver) {
	schemes := make(map[string]struct{})
	for _, s := range driver.Schemes() {
		schemes[s] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDriverID++
	m.drivers[m.nextDriverID] = &driverHandle{
		worker:  newWorker(driver),
		schemes: schemes,
	}
}

// Attach finds the first driver supporting any of urls' schemes (first
// mirror wins ties) and attaches to it, returning a handle that must be
// Closed (or left to its finalizer) when no longer needed.
func (m *Manager) Attach(ctx context.Context, urls []*url.URL, spec MediaSpec) (*AttachedMedium, error) {
	driverID, w, pickedURL, err := m.pickDriver(urls)
	if err != nil {
		return nil, err
	}

	reply := make(chan attachReply, 1)
	select {
	case w.inbox <- attachRequest{ctx: ctx, urls: urls, spec: spec, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		if res.err != nil {
			return nil, res.err
		}
		return newAttachedMedium(m, res.id, driverID, pickedURL), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) pickDriver(urls []*url.URL) (driverID uint32, w *worker, picked *url.URL, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range urls {
		for id, h := range m.drivers {
			if h.supports(u.Scheme) {
				return id, h.worker, u, nil
			}
		}
	}
	return 0, nil, nil, ErrNoDriverFound
}

// Fetch resolves medium's worker and requests relPath from the underlying
// driver.
func (m *Manager) Fetch(ctx context.Context, medium *AttachedMedium, relPath string, fspec FileSpec) (string, error) {
	m.mu.Lock()
	h, ok := m.drivers[medium.driverID]
	m.mu.Unlock()
	if !ok {
		return "", ErrInvalidHandle
	}

	reply := make(chan fetchReply, 1)
	select {
	case h.worker.inbox <- fetchRequest{ctx: ctx, attachID: medium.attachmentID, relPath: relPath, fspec: fspec, reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-reply:
		return res.path, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// detach enqueues a Detach for medium on its owning worker. It never
// blocks: callers (including AttachedMedium finalizers) must not be held up
// by a busy worker.
func (m *Manager) detach(driverID, attachmentID uint32) {
	m.mu.Lock()
	h, ok := m.drivers[driverID]
	m.mu.Unlock()
	if !ok {
		return
	}
	go func() {
		h.worker.inbox <- detachRequest{attachID: attachmentID}
	}()
}

// Shutdown stops every worker, waiting for in-flight handlers to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	handles := make([]*driverHandle, 0, len(m.drivers))
	for _, h := range m.drivers {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		h.worker.shutdown()
	}
}

// AttachedMedium is an opaque handle to an attachment. It holds only a weak
// reference to its owning Manager (weak.Pointer, Go's native analogue of
// the spec's Weak<T> backref) so that a Manager being torn down is never
// resurrected by a lingering handle; the driver-side use-count pin is what
// keeps the underlying attachment alive while fetches are in flight.
type AttachedMedium struct {
	mgr          weak.Pointer[Manager]
	attachmentID uint32
	driverID     uint32
	baseURL      *url.URL

	cleanup   runtime.Cleanup
	closeOnce sync.Once
}

func newAttachedMedium(mgr *Manager, attachmentID, driverID uint32, baseURL *url.URL) *AttachedMedium {
	weakMgr := weak.Make(mgr)
	h := &AttachedMedium{
		mgr:          weakMgr,
		attachmentID: attachmentID,
		driverID:     driverID,
		baseURL:      baseURL,
	}
	// Safety-net cleanup: if the caller forgets to Close, the attachment is
	// still released once the handle is garbage collected. Mirrors
	// LoopbackCache's explicit-close-with-finalizer-backstop idiom (that one
	// uses runtime.SetFinalizer to keep an *os.File alive; this one uses the
	// newer runtime.AddCleanup to run the release itself). The cleanup
	// closure captures only the weak pointer and plain ids, never h or mgr
	// directly, so it cannot keep either alive past their natural lifetime.
	h.cleanup = runtime.AddCleanup(h, releaseAttachment, driverAttachPair{mgr: weakMgr, driverID: driverID, attachmentID: attachmentID})
	return h
}

type driverAttachPair struct {
	mgr          weak.Pointer[Manager]
	driverID     uint32
	attachmentID uint32
}

func releaseAttachment(pair driverAttachPair) {
	if m := pair.mgr.Value(); m != nil {
		m.detach(pair.driverID, pair.attachmentID)
	}
}

// AttachmentID returns the driver-internal attachment id backing this
// handle.
func (h *AttachedMedium) AttachmentID() uint32 { return h.attachmentID }

// BaseURL returns the mirror URL that was selected to drive the attach.
func (h *AttachedMedium) BaseURL() *url.URL { return h.baseURL }

// Close explicitly enqueues a Detach for this handle by upgrading the weak
// Manager reference. It is idempotent and never blocks; if the Manager has
// already been collected, Close is a no-op, matching spec.md's "upgrade
// weak reference; if the Manager still exists, enqueue a Detach".
func (h *AttachedMedium) Close() {
	h.closeOnce.Do(func() {
		h.cleanup.Stop()
		if m := h.mgr.Value(); m != nil {
			m.detach(h.driverID, h.attachmentID)
		}
	})
}
