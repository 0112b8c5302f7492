package fs

import (
	"path/filepath"
	"sort"

	"go.trai.ch/zerr"
)

// Resolver expands copy rule patterns against a directory tree.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// Resolve returns the slash separated paths, relative to root, of every file
// matching pattern. The result is sorted. A missing root matches nothing,
// a root that cannot be walked completely is an error.
func (r *Resolver) Resolve(root, pattern string) ([]string, error) {
	var matches []string
	for path, err := range r.walker.WalkFiles(root, nil) {
		if err != nil {
			return nil, zerr.With(err, "root", root)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}
		rel = filepath.ToSlash(rel)
		if Match(pattern, rel) {
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)
	return matches, nil
}
