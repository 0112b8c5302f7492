// Package fs provides file system adapters for walking, matching, copying
// and hashing package trees.
package fs

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the path of every regular file below root, skipping VCS
// metadata and entries whose base name matches one of ignores.
// Yielded paths include root. A missing root yields nothing.
// Symbolic links to directories are followed; a link back into one of its
// own ancestors is skipped. A walk failure is yielded once, after which the
// sequence ends.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if _, err := os.Lstat(root); errors.Is(err, fs.ErrNotExist) {
			return
		}
		w.walk(root, root, ignores, make(map[string]struct{}), yield)
	}
}

// walk visits physical and yields paths rebased onto logical. It reports
// whether the consumer wants more.
func (w *Walker) walk(
	logical, physical string,
	ignores []string,
	ancestors map[string]struct{},
	yield func(string, error) bool,
) bool {
	resolved, err := filepath.EvalSymlinks(physical)
	if err != nil {
		return yield("", zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", logical))
	}
	if _, ok := ancestors[resolved]; ok {
		return true
	}
	ancestors[resolved] = struct{}{}
	defer delete(ancestors, resolved)

	more := true
	walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return err
		}
		out := filepath.Join(logical, rel)

		if w.ignored(d, ignores) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !w.walk(out, path, ignores, ancestors, yield) {
					more = false
					return filepath.SkipAll
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if !yield(out, nil) {
			more = false
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil && more {
		return yield("", zerr.With(zerr.Wrap(walkErr, "failed to walk directory"), "path", logical))
	}
	return more
}

func (w *Walker) ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return true
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
