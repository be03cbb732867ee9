// Package dishes discovers recipe documents below a directory and resolves
// dish names (file stems) to paths.
package dishes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// maxSuggestions bounds the names offered with a DishNotFound error.
const maxSuggestions = 3

// Entry is one discovered recipe document.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Index maps dish names to recipe paths. Names that occur more than once
// are kept with all their paths so lookups can report the ambiguity.
type Index struct {
	root  string
	paths map[string][]string
}

// Scan walks root recursively and indexes every .md file. Hidden
// directories are skipped.
func Scan(ctx context.Context, root string) (*Index, error) {
	return ScanFS(ctx, os.DirFS(root), root)
}

// ScanFS indexes fsys. Paths in the index are joined onto root so they can
// be opened with the os package.
func ScanFS(ctx context.Context, fsys fs.FS, root string) (*Index, error) {
	idx := &Index{root: root, paths: map[string][]string{}}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		idx.paths[name] = append(idx.paths[name], filepath.Join(root, filepath.FromSlash(path)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan dishes in %s: %w", root, err)
	}
	for _, paths := range idx.paths {
		sort.Strings(paths)
	}
	return idx, nil
}

// Root returns the directory the index was built from.
func (x *Index) Root() string { return x.root }

// Len returns the number of distinct dish names.
func (x *Index) Len() int { return len(x.paths) }

// Names returns every dish name in sorted order.
func (x *Index) Names() []string {
	names := make([]string, 0, len(x.paths))
	for name := range x.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every indexed document sorted by name, then path.
func (x *Index) Entries() []Entry {
	var out []Entry
	for _, name := range x.Names() {
		for _, p := range x.paths[name] {
			out = append(out, Entry{Name: name, Path: p})
		}
	}
	return out
}

// Duplicates returns the names that resolve to more than one document.
func (x *Index) Duplicates() map[string][]string {
	out := map[string][]string{}
	for name, paths := range x.paths {
		if len(paths) > 1 {
			out[name] = append([]string(nil), paths...)
		}
	}
	return out
}

// Lookup resolves a dish name to exactly one path. It fails with
// ErrDishNotFound, carrying close matches as candidates, or with
// ErrAmbiguousDish, carrying the conflicting paths.
func (x *Index) Lookup(name string) (string, error) {
	paths := x.paths[name]
	switch len(paths) {
	case 1:
		return paths[0], nil
	case 0:
		return "", &types.LookupError{Kind: types.ErrDishNotFound, Name: name, Candidates: x.Suggest(name)}
	default:
		return "", &types.LookupError{Kind: types.ErrAmbiguousDish, Name: name, Candidates: append([]string(nil), paths...)}
	}
}

// Suggest returns up to three known names close to name: names containing
// its letters in order, or within a small edit distance, closest first.
func (x *Index) Suggest(name string) []string {
	names := x.Names()
	if len(names) == 0 || name == "" {
		return nil
	}

	distance := map[string]int{}
	for _, r := range fuzzy.RankFindFold(name, names) {
		distance[r.Target] = r.Distance
	}
	limit := max(2, len([]rune(name))/3)
	lower := strings.ToLower(name)
	for _, n := range names {
		if _, ok := distance[n]; ok {
			continue
		}
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(n)); d <= limit {
			distance[n] = d
		}
	}

	out := make([]string, 0, len(distance))
	for n := range distance {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if distance[out[i]] != distance[out[j]] {
			return distance[out[i]] < distance[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
