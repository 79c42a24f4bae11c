// Package httpdriver implements the sole bundled media.Driver, serving
// files over HTTP/HTTPS with mirror fallback and request deduplication.
package httpdriver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/bzeller/zypp-media-go/media"
	"github.com/rs/zerolog/log"
)

const scratchPrefix = "zypp-http"

// Driver is the HTTP/HTTPS media.Driver. It owns the attached-media table
// exclusively behind mu; no mutation of entry bookkeeping ever happens
// without holding it. It is never held across network I/O, a download's
// file writes, or a channel receive; Attach creates and eviction removes a
// scratch directory while holding it.
type Driver struct {
	client      *http.Client
	scratchRoot string

	mu           sync.Mutex
	entries      map[uint32]*attachedMediaEntry
	nextAttachID uint32
}

// New creates an HTTP driver. client is an injected collaborator (see
// spec.md §1); a nil client defaults to http.DefaultClient. scratchRoot is
// the directory under which per-attachment scratch directories are created;
// an empty scratchRoot defaults to os.TempDir().
func New(client *http.Client, scratchRoot string) *Driver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Driver{
		client:      client,
		scratchRoot: scratchRoot,
		entries:     make(map[uint32]*attachedMediaEntry),
	}
}

// Schemes implements media.Driver.
func (d *Driver) Schemes() []string { return []string{"http", "https"} }

// Attach implements media.Driver per spec.md §4.3.1: linear scan for a
// matching entry (True, or Indeterminate with matching first mirror), else
// allocate a fresh attachment with its own scratch directory.
func (d *Driver) Attach(ctx context.Context, urls []*url.URL, spec media.MediaSpec) (uint32, error) {
	if len(urls) == 0 {
		return 0, media.ErrNoDriverFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for id, entry := range d.entries {
		switch media.IsSameMedium(entry.spec, spec) {
		case media.True:
			entry.pin()
			return id, nil
		case media.False:
			continue
		default: // Indeterminate
			if len(entry.mirrors) > 0 && urls[0].String() == entry.mirrors[0].String() {
				entry.pin()
				return id, nil
			}
		}
	}

	scratchDir, err := os.MkdirTemp(d.scratchRoot, scratchPrefix+"-")
	if err != nil {
		return 0, media.Internal("could not create scratch directory", err)
	}

	d.nextAttachID++
	id := d.nextAttachID
	d.entries[id] = newAttachedMediaEntry(scratchDir, urls, spec)

	log.Debug().
		Uint32("attach_id", id).
		Str("scratch_dir", scratchDir).
		Str("label", spec.Label).
		Msg("attached new medium")

	return id, nil
}

// Detach implements media.Driver per spec.md §4.3.3.
func (d *Driver) Detach(attachID uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detachLocked(attachID)
}

// detachLocked requires d.mu to be held by the caller.
func (d *Driver) detachLocked(attachID uint32) error {
	entry, ok := d.entries[attachID]
	if !ok {
		return media.ErrInvalidHandle
	}
	if entry.unpin() {
		delete(d.entries, attachID)
		if err := os.RemoveAll(entry.scratchDir); err != nil {
			log.Warn().Err(err).Str("scratch_dir", entry.scratchDir).
				Msg("failed to remove scratch directory on eviction")
		}
		log.Debug().Uint32("attach_id", attachID).Msg("evicted attachment")
	}
	return nil
}

func (d *Driver) lookup(attachID uint32) (*attachedMediaEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[attachID]
	if !ok {
		return nil, media.ErrInvalidHandle
	}
	return entry, nil
}

func (d *Driver) String() string {
	return fmt.Sprintf("httpdriver.Driver{scratchRoot=%s}", d.scratchRoot)
}

// NewManager builds a media.Manager with the bundled HTTP/HTTPS driver
// registered by default (spec.md §6 "Driver registration"). client and
// scratchRoot are forwarded to New.
func NewManager(client *http.Client, scratchRoot string) *media.Manager {
	mgr := media.NewManager()
	mgr.AddDriver(New(client, scratchRoot))
	return mgr
}
