package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactVerifier = (*Verifier)(nil)

// Verifier checks staged trees for the library artifacts they declare.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// libraryPatterns are the file names a library "name" can be built as.
var libraryPatterns = []string{
	"lib%s.a",
	"lib%s.so",
	"lib%s.so.*",
	"lib%s.dylib",
	"lib%s.*.dylib",
	"%s.lib",
	"lib%s.lib",
	"%s.dll",
	"lib%s.dll",
}

// VerifyLibraries checks that every entry of info.Libs has at least one
// artifact in the library or binary directories below root.
func (v *Verifier) VerifyLibraries(root string, info domain.CppInfo) error {
	info = info.WithDefaults()
	dirs := append(append([]string{}, info.LibDirs...), info.BinDirs...)

	for _, lib := range info.Libs {
		found, err := v.hasLibrary(root, dirs, lib)
		if err != nil {
			return err
		}
		if !found {
			err := zerr.With(domain.ErrRequiredArtifactMissing, "library", lib)
			return zerr.With(err, "path", root)
		}
	}
	return nil
}

func (v *Verifier) hasLibrary(root string, dirs []string, lib string) (bool, error) {
	for _, dir := range dirs {
		base := filepath.Join(root, filepath.FromSlash(dir))
		if _, err := os.Stat(base); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat directory"), "path", base)
		}
		for _, p := range libraryPatterns {
			matches, err := filepath.Glob(filepath.Join(base, fmt.Sprintf(p, lib)))
			if err != nil {
				return false, zerr.With(zerr.Wrap(err, "failed to glob library"), "library", lib)
			}
			if len(matches) > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}
