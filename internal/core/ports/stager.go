package ports

import "go.trai.ch/kiln/internal/core/domain"

// Stager copies files selected by copy rules into a destination tree.
//
//go:generate go run go.uber.org/mock/mockgen -source=stager.go -destination=mocks/mock_stager.go -package=mocks
type Stager interface {
	// Stage applies rules against every root in order and returns the staged
	// paths relative to dest, sorted.
	Stage(roots []string, dest string, rules []domain.CopyRule) ([]string, error)
}
