package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher provides hashing functionality for files, package trees and package ids.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeManifest digests every file below root, except the manifest and
// info files kiln writes at the top of a package folder.
func (h *Hasher) ComputeManifest(ctx context.Context, root string) (domain.Manifest, error) {
	var files []string
	for path, err := range h.walker.WalkFiles(root, nil) {
		if err != nil {
			return domain.Manifest{}, zerr.With(err, "root", root)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return domain.Manifest{}, zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}
		if rel == domain.ManifestFile || rel == domain.InfoFile {
			continue
		}
		files = append(files, rel)
	}

	entries := make([]domain.ManifestEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := h.ComputeFileHash(filepath.Join(root, rel))
			if err != nil {
				return err
			}
			entries[i] = domain.ManifestEntry{
				Path:   filepath.ToSlash(rel),
				Digest: fmt.Sprintf("%016x", sum),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Manifest{}, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	m := domain.Manifest{Entries: entries}
	m.Hash = fmt.Sprintf("%016x", xxhash.Sum64(m.Render()))
	return m, nil
}

// ComputePackageID hashes the recipe reference, the values of its declared
// settings, the resolved options and every requirement reference.
// Settings the recipe does not declare do not change the id.
func (h *Hasher) ComputePackageID(recipe *domain.Recipe, settings domain.Settings, options domain.Options) string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(recipe.Reference.String())
	_, _ = hasher.Write([]byte{0})

	declared := slices.Clone(recipe.Settings)
	sort.Strings(declared)
	for _, key := range declared {
		v, _ := settings.Get(key)
		writePair(hasher, key, v)
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, key := range options.Keys() {
		writePair(hasher, key, options[key])
	}
	_, _ = hasher.Write([]byte{0})

	writeRefs(hasher, recipe.Requires)
	writeRefs(hasher, recipe.BuildRequires)

	return fmt.Sprintf("%016x", hasher.Sum64())
}

func writePair(hasher *xxhash.Digest, k, v string) {
	_, _ = hasher.WriteString(k)
	_, _ = hasher.Write([]byte{'='})
	_, _ = hasher.WriteString(v)
	_, _ = hasher.Write([]byte{0})
}

func writeRefs(hasher *xxhash.Digest, refs []domain.Reference) {
	sorted := make([]string, 0, len(refs))
	for _, r := range refs {
		sorted = append(sorted, r.String())
	}
	sort.Strings(sorted)
	for _, r := range sorted {
		_, _ = hasher.WriteString(r)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}
