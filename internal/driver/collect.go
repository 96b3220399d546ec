package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filter decides which files a batch operation picks up when it walks a
// directory. Extension matching is case-insensitive because TwinCAT
// writes .TcPOU while case-folding filesystems may hand back .tcpou.
type Filter struct {
	exts map[string]struct{}
}

func NewFilter(exts ...string) Filter {
	f := Filter{exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		f.exts[strings.ToLower(e)] = struct{}{}
	}
	return f
}

func (f Filter) Match(path string) bool {
	_, ok := f.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (f Filter) empty() bool {
	return len(f.exts) == 0
}

// CodeFilter matches the PLC source files that carry declaration and
// implementation code.
func CodeFilter() Filter {
	return NewFilter(".tcpou", ".tcgvl", ".tcdut")
}

// ProjectFilter matches the project-level XML files that the sorter
// normalizes.
func ProjectFilter() Filter {
	return NewFilter(".tsproj", ".xti", ".plcproj")
}

// CollectFiles expands paths into a sorted, deduplicated file list.
// Directories are scanned with the filter applied, descending into
// subdirectories only when recursive is set; files named explicitly are
// taken as-is, whatever their extension.
func CollectFiles(ctx context.Context, paths []string, filter Filter, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if !recursive && path != p {
					return fs.SkipDir
				}
				return nil
			}
			if filter.Match(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
