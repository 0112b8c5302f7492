package fs

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

var _ ports.Stager = (*Copier)(nil)

// Copier implements ports.Stager by copying matched files.
type Copier struct {
	resolver *Resolver
	hasher   ports.Hasher
}

// NewCopier creates a new Copier.
func NewCopier(resolver *Resolver, hasher ports.Hasher) *Copier {
	return &Copier{resolver: resolver, hasher: hasher}
}

// Stage applies every rule against every root, in order. A destination
// reached twice is accepted only when both sources have identical content.
func (c *Copier) Stage(roots []string, dest string, rules []domain.CopyRule) ([]string, error) {
	staged := make(map[string]string)

	for _, rule := range rules {
		matched := 0
		for _, root := range roots {
			src := filepath.Join(root, filepath.FromSlash(rule.Src))
			matches, err := c.resolver.Resolve(src, rule.Pattern)
			if err != nil {
				return nil, err
			}

			for _, rel := range matches {
				target := rel
				if !rule.KeepPath {
					target = path.Base(rel)
				}
				target = path.Join(rule.Dst, target)
				from := filepath.Join(src, filepath.FromSlash(rel))

				if err := c.place(staged, from, target, dest); err != nil {
					return nil, zerr.With(err, "pattern", rule.Pattern)
				}
				matched++
			}
		}

		if matched == 0 && rule.Required {
			err := zerr.With(domain.ErrRequiredArtifactMissing, "pattern", rule.Pattern)
			return nil, zerr.With(err, "src", rule.Src)
		}
	}

	out := make([]string, 0, len(staged))
	for target := range staged {
		out = append(out, target)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Copier) place(staged map[string]string, from, target, dest string) error {
	if prev, ok := staged[target]; ok {
		if prev == from {
			return nil
		}
		same, err := c.sameContent(prev, from)
		if err != nil {
			return err
		}
		if !same {
			err := zerr.With(domain.ErrDestinationCollision, "destination", target)
			err = zerr.With(err, "first", prev)
			return zerr.With(err, "second", from)
		}
		return nil
	}

	if err := copyFile(from, filepath.Join(dest, filepath.FromSlash(target))); err != nil {
		return err
	}
	staged[target] = from
	return nil
}

func (c *Copier) sameContent(a, b string) (bool, error) {
	ha, err := c.hasher.ComputeFileHash(a)
	if err != nil {
		return false, err
	}
	hb, err := c.hasher.ComputeFileHash(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from) //nolint:gosec // Path comes from a resolved copy rule
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", from)
	}
	defer in.Close() //nolint:errcheck // Read-only file

	info, err := in.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", from)
	}

	if err := os.MkdirAll(filepath.Dir(to), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(to))
	}

	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Destination is inside the staging tree
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", to)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", to)
	}
	if err := out.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close file"), "path", to)
	}
	return nil
}
