package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Hasher computes content digests and package identifiers.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFileHash returns the digest of a single file's content.
	ComputeFileHash(path string) (uint64, error)
	// ComputeManifest digests every file below root.
	ComputeManifest(ctx context.Context, root string) (domain.Manifest, error)
	// ComputePackageID derives the binary package identifier from the
	// recipe reference, its declared settings, resolved options and
	// requirements.
	ComputePackageID(recipe *domain.Recipe, settings domain.Settings, options domain.Options) string
}
