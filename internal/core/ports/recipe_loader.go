package ports

import "go.trai.ch/kiln/internal/core/domain"

// RecipeLoader reads recipe files.
//
//go:generate go run go.uber.org/mock/mockgen -source=recipe_loader.go -destination=mocks/mock_recipe_loader.go -package=mocks
type RecipeLoader interface {
	// LoadRecipe reads the package recipe found in dir.
	LoadRecipe(dir string) (*domain.Recipe, error)
	// LoadTestRecipe reads the test recipe found in dir.
	LoadTestRecipe(dir string) (*domain.TestRecipe, error)
}
