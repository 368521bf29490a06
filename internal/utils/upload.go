package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for uploads whose extension is not an image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewImageFilename returns a random filename that keeps the original extension.
func NewImageFilename(original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return uuid.NewString() + ext, nil
}

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
