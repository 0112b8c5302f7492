package profile

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/core/ports"
)

const NodeID graft.ID = "adapter.profile_loader"

func init() {
	graft.Register(graft.Node[ports.ProfileLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ProfileLoader, error) {
			home, err := cas.DefaultHome()
			if err != nil {
				return nil, err
			}
			return NewLoader(filepath.Join(home, "profiles")), nil
		},
	})
}
