package imaging

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// FrameFormat returns the image format implied by a file extension:
// "png", "jpeg", "gif" or "unknown".
func FrameFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	}
	return "unknown"
}

// LoadFrame reads a recorded camera frame from disk.
//
// Parameters:
//   - path: PNG, JPEG or GIF file.
//   - width, height: the session frame size. Zero skips the size check.
//
// Returns:
//   - *image.NRGBA: the decoded frame rebased to (0,0).
//   - error: Non-nil if the file cannot be read, is not a supported format, or
//     does not match the session size (ErrFrameSize, wrapped).
func LoadFrame(path string, width, height int) (*image.NRGBA, error) {
	if FrameFormat(path) == "unknown" {
		return nil, fmt.Errorf("unsupported frame format %q", filepath.Ext(path))
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load frame: %w", err)
	}
	frame := imaging.Clone(img)

	b := frame.Bounds()
	if width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		return nil, fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrFrameSize, path, b.Dx(), b.Dy(), width, height)
	}
	return frame, nil
}

// SaveImage writes img to path; the format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if FrameFormat(path) == "unknown" {
		return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
