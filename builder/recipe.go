package builder

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// RecipeFile is the conda recipe descriptor a buildable package must
	// carry in its recipe directory.
	RecipeFile = "meta.yaml"

	// VariantFileName is the per-package conda-build variant
	// configuration looked up next to the recipe.
	VariantFileName = "conda_build_config.yaml"

	// AppendFileName is the per-package recipe append file looked up
	// next to the recipe.
	AppendFileName = "recipe_append.yaml"
)

// HasRecipe reports whether dir contains a conda recipe descriptor.
// A missing recipe is an expected condition for packages that do not build
// on the current platform, not an error.
func HasRecipe(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, RecipeFile))
	return err == nil && !info.IsDir()
}

// BuildConfig holds the conda-build configuration override files for one
// build.
type BuildConfig struct {
	VariantFile string
	AppendFile  string
}

// DiscoverConfig locates per-package variant and append files next to the
// recipe, falling back to the run-level defaults for whichever is absent.
// The choice is logged so CI output shows which configuration was used.
func DiscoverConfig(recipeDir string, defaults BuildConfig, log *slog.Logger) BuildConfig {
	if log == nil {
		log = slog.Default()
	}

	cfg := defaults
	if local := filepath.Join(recipeDir, VariantFileName); fileExists(local) {
		cfg.VariantFile = local
		log.Info("using package-local variant configuration", "path", local)
	} else {
		log.Info("using default variant configuration", "path", cfg.VariantFile)
	}

	if local := filepath.Join(recipeDir, AppendFileName); fileExists(local) {
		cfg.AppendFile = local
		log.Info("using package-local recipe append file", "path", local)
	} else {
		log.Info("using default recipe append file", "path", cfg.AppendFile)
	}
	return cfg
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
