package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the package store Graft node.
const NodeID graft.ID = "adapter.package_store"

func init() {
	graft.Register(graft.Node[ports.PackageStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.PackageStore, error) {
			home, err := DefaultHome()
			if err != nil {
				return nil, err
			}
			return NewStore(home), nil
		},
	})
}
