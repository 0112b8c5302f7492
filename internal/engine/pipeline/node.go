package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/cas"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/cmake"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/fs"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/shell"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// BuilderNodeID is the unique identifier for the package builder Graft node.
	BuilderNodeID graft.ID = "engine.builder"
	// VerifierNodeID is the unique identifier for the package verifier Graft node.
	VerifierNodeID graft.ID = "engine.verifier"
)

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        BuilderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			cmake.NodeID,
			fs.StagerNodeID,
			fs.HasherNodeID,
			fs.VerifierNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			store, err := graft.Dep[ports.PackageStore](ctx)
			if err != nil {
				return nil, err
			}

			toolchain, err := graft.Dep[ports.Toolchain](ctx)
			if err != nil {
				return nil, err
			}

			stager, err := graft.Dep[ports.Stager](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.ArtifactVerifier](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewBuilder(store, toolchain, stager, hasher, verifier, log), nil
		},
	})

	graft.Register(graft.Node[*Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			cmake.NodeID,
			fs.StagerNodeID,
			shell.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Verifier, error) {
			store, err := graft.Dep[ports.PackageStore](ctx)
			if err != nil {
				return nil, err
			}

			toolchain, err := graft.Dep[ports.Toolchain](ctx)
			if err != nil {
				return nil, err
			}

			stager, err := graft.Dep[ports.Stager](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewVerifier(store, toolchain, stager, executor, log), nil
		},
	})
}
