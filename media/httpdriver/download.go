package httpdriver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bzeller/zypp-media-go/media"
	"github.com/rs/zerolog/log"
)

// Provide implements media.Driver per spec.md §4.3.2. It pins the
// attachment for the duration of the call, prepares the target directory,
// and then runs the request-dedup / mirror-fallback state machine: at most
// one download task is ever in flight per (attachID, relPath), and every
// caller for that pair observes either the same final file or an error.
func (d *Driver) Provide(ctx context.Context, attachID uint32, relPath string, fspec media.FileSpec) (string, error) {
	entry, err := d.lookup(attachID)
	if err != nil {
		return "", err
	}

	entry.pin()
	defer func() {
		if entry.unpin() {
			d.mu.Lock()
			_ = d.detachLocked(attachID)
			d.mu.Unlock()
		}
	}()

	targetDir, fileName, err := d.prepareTargetDir(entry.scratchDir, relPath)
	if err != nil {
		return "", err
	}
	targetFile := filepath.Join(targetDir, fileName)

	for {
		if _, statErr := os.Stat(targetFile); statErr == nil {
			return targetFile, nil
		}

		d.mu.Lock()
		if _, running := entry.inFlight[relPath]; running {
			wait := entry.notify
			d.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		entry.inFlight[relPath] = struct{}{}
		mirrors := append([]*url.URL(nil), entry.mirrors...)
		d.mu.Unlock()

		// This goroutine is now the requester for relPath: release it on
		// every exit, including a panicking unwind, or every future
		// Provide for this (attachID, relPath) deadlocks waiting on a
		// notify channel nothing will ever close.
		defer func() {
			d.mu.Lock()
			delete(entry.inFlight, relPath)
			entry.broadcast()
			d.mu.Unlock()
		}()

		return d.fetchFromMirrors(ctx, mirrors, relPath, targetDir, fileName, targetFile)
	}
}

// prepareTargetDir implements spec.md §4.3.2(b). rel is the medium-relative
// path; its parent component (with any leading separator stripped) is
// joined onto scratchDir.
func (d *Driver) prepareTargetDir(scratchDir, relPath string) (targetDir, fileName string, err error) {
	dir := filepath.Dir(relPath)
	if filepath.IsAbs(dir) {
		dir = strings.TrimPrefix(dir, string(filepath.Separator))
	}
	targetDir = filepath.Join(scratchDir, dir)

	if info, statErr := os.Stat(targetDir); statErr == nil {
		if !info.IsDir() {
			return "", "", media.ErrFileExists
		}
	} else if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", "", media.Internal("could not create target directory", err)
	}

	fileName = filepath.Base(relPath)
	if strings.HasSuffix(relPath, string(filepath.Separator)) ||
		fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return "", "", media.ErrNotAFile
	}
	return targetDir, fileName, nil
}

// fetchFromMirrors is the requester role of spec.md §4.3.2(c)3-4: try each
// mirror in order, returning on first success. On full exhaustion it
// returns the last recorded error, or FileNotFound if none was more
// specific.
func (d *Driver) fetchFromMirrors(ctx context.Context, mirrors []*url.URL, relPath, targetDir, fileName, targetFile string) (string, error) {
	relURL := strings.TrimPrefix(filepath.ToSlash(relPath), "/")

	var lastErr error
	for _, mirror := range mirrors {
		reqURL, err := mirror.Parse(relURL)
		if err != nil {
			lastErr = media.ErrInvalidPath
			continue
		}

		path, err := d.downloadOne(ctx, reqURL, targetDir, fileName, targetFile)
		if err != nil {
			log.Debug().Err(err).Str("mirror", reqURL.String()).Str("path", relPath).
				Msg("mirror failed, trying next")
			if _, nonSuccess := err.(*httpStatusError); nonSuccess {
				// A plain non-success status carries no transport-specific
				// information worth surfacing; spec.md §4.3.2(c)4 treats
				// this the same as exhaustion with nothing attempted.
				lastErr = media.ErrFileNotFound
			} else {
				lastErr = err
			}
			continue
		}
		return path, nil
	}

	if lastErr == nil {
		lastErr = media.ErrFileNotFound
	}
	return "", lastErr
}

// downloadOne performs a single GET against reqURL, streaming the response
// body into a temp file in targetDir, then fsyncing and atomically renaming
// it onto targetFile. No partial file is ever observable at targetFile.
func (d *Driver) downloadOne(ctx context.Context, reqURL *url.URL, targetDir, fileName, targetFile string) (string, error) {
	tmp, err := os.CreateTemp(targetDir, "."+fileName+".part-*")
	if err != nil {
		return "", media.Internal("could not create temp file", err)
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", media.ErrInvalidURL
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", media.HTTPError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Deliberately not wrapped in media.HTTPError: a non-success status
		// is not a transport failure, and fetchFromMirrors treats it as a
		// plain exhaustion signal rather than a specific error to surface.
		return "", &httpStatusError{url: reqURL.String(), status: resp.StatusCode}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", media.HTTPError(err)
	}
	if err := tmp.Sync(); err != nil {
		return "", media.Internal("fsync of downloaded file failed", err)
	}
	if err := tmp.Close(); err != nil {
		return "", media.Internal("close of downloaded file failed", err)
	}
	if err := os.Rename(tmpName, targetFile); err != nil {
		return "", media.Internal("atomic rename of downloaded file failed", err)
	}
	succeeded = true
	return targetFile, nil
}

type httpStatusError struct {
	url    string
	status int
}

func (e *httpStatusError) Error() string {
	return "non-success status " + http.StatusText(e.status) + " from " + e.url
}
