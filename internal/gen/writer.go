package gen

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("automap.writer")

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteOptions controls how artifacts reach the disk.
type WriteOptions struct {
	// Jobs bounds concurrent writes; zero means GOMAXPROCS.
	Jobs int
	// ManifestPath enables stale artifact removal when set.
	ManifestPath string
	// Dirs are the package directories loaded by this run. Stale removal is
	// limited to them and to the directories of the written files; manifest
	// entries elsewhere belong to packages this run did not see and are
	// carried over.
	Dirs []string
	// DryRun reports what would change without touching the disk.
	DryRun bool
}

// WriteResult lists the affected paths, sorted.
type WriteResult struct {
	Written   []string
	Unchanged []string
	Removed   []string
}

// WriteFiles writes every file into its package directory. Files whose
// content is already on disk are left untouched, and artifacts recorded
// by the previous manifest that were not generated again are removed.
func WriteFiles(ctx context.Context, files []GeneratedFile, opts WriteOptions) (*WriteResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var (
		mu     sync.Mutex
		result WriteResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			changed, err := writeIfChanged(file, opts.DryRun)
			if err != nil {
				return fmt.Errorf("writing file %s: %w", file.Path(), err)
			}

			mu.Lock()
			defer mu.Unlock()

			if changed {
				result.Written = append(result.Written, file.Path())
			} else {
				result.Unchanged = append(result.Unchanged, file.Path())
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.ManifestPath != "" {
		removed, err := removeStale(files, opts)
		if err != nil {
			return nil, err
		}

		result.Removed = removed
	}

	sort.Strings(result.Written)
	sort.Strings(result.Unchanged)

	return &result, nil
}

func writeIfChanged(file GeneratedFile, dryRun bool) (bool, error) {
	existing, err := os.ReadFile(file.Path())
	if err == nil && bytes.Equal(existing, file.Content) {
		return false, nil
	}

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if dryRun {
		log.Debugf("would write %s", file.Path())
		return true, nil
	}

	log.Debugf("writing %s (%s)", file.Path(), file.TypePair)

	if err := os.MkdirAll(file.Dir, dirPerm); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}

	return true, os.WriteFile(file.Path(), file.Content, filePerm)
}

// removeStale deletes artifacts of the previous run in the directories of
// this run that were not generated again, then records the current set.
func removeStale(files []GeneratedFile, opts WriteOptions) ([]string, error) {
	previous, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	scope := make(map[string]bool, len(opts.Dirs)+len(files))
	for _, dir := range opts.Dirs {
		scope[filepath.Clean(dir)] = true
	}

	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f.Path()] = true
		scope[filepath.Clean(f.Dir)] = true
	}

	next := NewManifest(files)

	var removed []string

	for _, entry := range previous.Entries {
		path := entry.Path

		switch {
		case current[path]:
			continue
		case !scope[filepath.Dir(path)]:
			next.add(entry)
			continue
		case !isGenerated(path):
			continue
		}

		if !opts.DryRun {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("removing stale artifact %s: %w", path, err)
			}
		}

		log.Debugf("removing stale artifact %s", path)

		removed = append(removed, path)
	}

	sort.Strings(removed)

	if opts.DryRun {
		return removed, nil
	}

	return removed, next.Save(opts.ManifestPath)
}

// isGenerated reports whether the file at path starts with Header.
func isGenerated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	return strings.HasPrefix(line, Header)
}
