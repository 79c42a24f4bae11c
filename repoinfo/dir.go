package repoinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadRepoDir parses every *.repo file directly under dir concurrently and
// returns their combined RepoInfo entries, sorted by file name then by
// in-file section order. A parse failure in one file does not stop the
// others from being parsed, but if any file fails no entries are returned:
// only the first error encountered, after all files have been attempted.
func LoadRepoDir(dir string) ([]RepoInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading repo directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".repo") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var (
		mu      sync.Mutex
		results = make(map[string][]RepoInfo, len(paths))
		group   errgroup.Group
	)
	for _, p := range paths {
		p := p
		group.Go(func() error {
			infos, err := ParseRepoFile(p)
			if err != nil {
				return fmt.Errorf("loading %s: %w", p, err)
			}
			mu.Lock()
			results[p] = infos
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var all []RepoInfo
	for _, p := range paths {
		all = append(all, results[p]...)
	}
	return all, nil
}
