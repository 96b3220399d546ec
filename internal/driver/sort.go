package driver

import (
	"context"
	"errors"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/source"
	"github.com/DEMCON/twincat-tools/internal/xmlsort"
)

// SortOptions configures a batch XML sorting run.
type SortOptions struct {
	Mode Mode
	// Jobs bounds the worker pool; 0 means GOMAXPROCS.
	Jobs int
	// Filter replaces ProjectFilter for directory walks when non-empty.
	Filter Filter
	// Recursive descends into subdirectories of directory targets.
	Recursive bool
	SkipNodes []string
	// MaxDiagnostics caps the diagnostics kept per file; 0 uses the
	// Bag default.
	MaxDiagnostics int
	// Progress, when set, is called once per finished file.
	Progress func(Event)
}

// SortResult is the outcome for a single file.
type SortResult struct {
	Path    string
	Changed bool
	Err     error
	// Output holds the rewritten bytes in ModeDry.
	Output []byte
	Diags  []diag.Diagnostic
	// Files resolves the spans in Diags.
	Files *source.FileSet
}

// SortPaths sorts the given files and directories. Directories are
// walked for project-level XML files.
func SortPaths(ctx context.Context, paths []string, opts SortOptions) ([]SortResult, error) {
	filter := opts.Filter
	if filter.empty() {
		filter = ProjectFilter()
	}
	files, err := CollectFiles(ctx, paths, filter, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("sort: no project files found")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]SortResult, len(files))

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

			results[i] = sortOne(path, opts)
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

func sortOne(path string, opts SortOptions) SortResult {
	res := SortResult{Path: path}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	f := fileSet.Get(id)
	res.Files = fileSet

	out, err := xmlsort.Sort(f, xmlsort.Options{SkipNodes: opts.SkipNodes})
	if err != nil {
		res.Err = err
		return res
	}
	res.Diags = collectDiags(out.Diags, opts.MaxDiagnostics)
	res.Changed = out.Changed
	if !out.Changed {
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
