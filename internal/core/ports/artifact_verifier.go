package ports

import "go.trai.ch/kiln/internal/core/domain"

// ArtifactVerifier checks that a staged tree carries the libraries it declares.
//
//go:generate go run go.uber.org/mock/mockgen -source=artifact_verifier.go -destination=mocks/mock_artifact_verifier.go -package=mocks
type ArtifactVerifier interface {
	// VerifyLibraries fails with domain.ErrRequiredArtifactMissing when a
	// library of info has no artifact below root.
	VerifyLibraries(root string, info domain.CppInfo) error
}
