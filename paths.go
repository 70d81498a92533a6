package civit

import (
	"fmt"
	"os"
	"path/filepath"
)

// categoryLeaf maps a model category to its relative destination
// directory below the base. The layout mirrors a stable-diffusion
// web UI installation.
func categoryLeaf(cat ModelCategory) string {
	switch cat {
	case CategoryModel, CategoryCheckpoint:
		return "models/Stable-diffusion"
	case CategoryLora, CategoryLoCon:
		return "models/Lora"
	case CategoryTextualInversion:
		return "embeddings"
	case CategoryHypernetwork:
		return "models/hypernetworks"
	case CategoryAestheticGradient:
		return "models/aesthetic_embeddings"
	case CategoryPoses:
		return "models/poses"
	case CategoryWildcards:
		return "downloads/wildcards"
	default:
		return "downloads"
	}
}

// ResolveDir computes the destination directory for a category below
// base: the joined path made absolute and canonical, with symlinks
// resolved where the path already exists on disk. The mapping itself is
// total; only normalization can fail, reported as ErrPathResolution.
func ResolveDir(base string, cat ModelCategory) (string, error) {
	dir := filepath.Join(base, filepath.FromSlash(categoryLeaf(cat)))

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathResolution, err)
	}

	// Canonicalize through symlinks when the directory exists. A missing
	// directory is not an error here; the transfer creates it.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %v", ErrPathResolution, err)
	}

	return abs, nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrIO, path, err)
	}
	return nil
}
