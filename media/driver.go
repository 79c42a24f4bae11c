package media

import (
	"context"
	"net/url"
)

// Driver is the polymorphic contract every transport implements. All of
// Attach, Provide and Detach may be called concurrently from a Worker;
// implementations must serialize their own mutable state.
type Driver interface {
	// Schemes returns the set of URL schemes this driver handles.
	Schemes() []string

	// Attach associates urls+spec with an attachment, returning its id.
	// urls must be non-empty and ordered by mirror preference.
	Attach(ctx context.Context, urls []*url.URL, spec MediaSpec) (uint32, error)

	// Provide materializes relPath (medium-relative) into a local file and
	// returns its absolute path. The returned file is fully synced to disk;
	// no partial file is ever observable at the returned path.
	Provide(ctx context.Context, attachID uint32, relPath string, fspec FileSpec) (string, error)

	// Detach decrements the attachment's use-count, evicting it at zero.
	// Idempotent when the attachment was already evicted is NOT guaranteed -
	// an unknown id returns ErrInvalidHandle.
	Detach(attachID uint32) error
}
