// Package driver runs the single-file engines over whole projects:
// file discovery, per-file configuration resolution, a bounded worker
// pool and the clean-file cache live here, so the commands stay thin.
package driver

import (
	"context"
	"errors"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/format"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// Mode selects what happens with a rewritten file.
type Mode uint8

const (
	// ModeWrite rewrites files in place.
	ModeWrite Mode = iota
	// ModeCheck reports what would change without touching disk.
	ModeCheck
	// ModeDry returns the rewritten bytes in the results.
	ModeDry
)

// Event reports one finished file to the progress consumer. Callbacks
// may arrive from different workers at once.
type Event struct {
	Path    string
	Index   int
	Total   int
	Changed bool
	Err     error
}

// FormatOptions configures a batch formatting run.
type FormatOptions struct {
	Mode Mode
	// Jobs bounds the worker pool; 0 means GOMAXPROCS.
	Jobs int
	// Filter replaces CodeFilter for directory walks when non-empty.
	Filter Filter
	// Recursive descends into subdirectories of directory targets.
	Recursive bool
	// Resolve returns the configuration for one file, usually the
	// editorconfig cascade. Nil formats with an empty configuration,
	// which changes nothing.
	Resolve func(path string) (format.Config, error)
	// Cache skips files already known to be clean. Nil disables caching.
	Cache *DiskCache
	// MaxDiagnostics caps the diagnostics kept per file; 0 uses the
	// Bag default.
	MaxDiagnostics int
	// Progress, when set, is called once per finished file.
	Progress func(Event)
}

// collectDiags funnels raw engine diagnostics through a Bag so results
// carry a capped, position-ordered, deduplicated list.
func collectDiags(diags []diag.Diagnostic, max int) []diag.Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	bag := diag.NewBag(max)
	for _, d := range diags {
		bag.Add(d)
	}
	bag.Sort()
	bag.Dedup()
	return bag.Items()
}

// FormatResult is the outcome for a single file.
type FormatResult struct {
	Path    string
	Changed bool
	// CacheHit is set when the file was skipped as known-clean.
	CacheHit bool
	Err      error
	// Output holds the rewritten bytes in ModeDry.
	Output []byte
	Diags  []diag.Diagnostic
	// Files resolves the spans in Diags.
	Files *source.FileSet
}

// FormatPaths formats the given files and directories. Directories are
// walked for PLC source files. The returned slice is ordered like the
// collected file list regardless of worker scheduling; per-file failures
// land in the result, only setup errors abort the run.
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	filter := opts.Filter
	if filter.empty() {
		filter = CodeFilter()
	}
	files, err := CollectFiles(ctx, paths, filter, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("format: no source files found")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// One slot per file; workers never share an index.
	results := make([]FormatResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			results[i] = formatOne(path, opts)
			if opts.Progress != nil {
				opts.Progress(Event{
					Path:    path,
					Index:   i,
					Total:   len(files),
					Changed: results[i].Changed,
					Err:     results[i].Err,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func formatOne(path string, opts FormatOptions) FormatResult {
	res := FormatResult{Path: path}

	var cfg format.Config
	if opts.Resolve != nil {
		var err error
		cfg, err = opts.Resolve(path)
		if err != nil {
			res.Err = err
			return res
		}
	}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	f := fileSet.Get(id)
	res.Files = fileSet

	key := CacheKey(f.Hash, cfg)
	if opts.Cache.IsClean(key) {
		res.CacheHit = true
		return res
	}

	out, err := format.Format(f, cfg)
	if err != nil {
		res.Err = err
		return res
	}
	res.Diags = collectDiags(out.Diags, opts.MaxDiagnostics)
	res.Changed = out.Changed

	if !out.Changed {
		if len(out.Diags) == 0 {
			// Only clean-and-quiet files are cached; anything with
			// findings must resurface them on the next run.
			_ = opts.Cache.MarkClean(key)
		}
		return res
	}

	switch opts.Mode {
	case ModeCheck:
	case ModeDry:
		res.Output = out.Output
	case ModeWrite:
		mode := os.FileMode(0o644)
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, out.Output, mode.Perm()); err != nil {
			res.Err = err
		}
	}
	return res
}
