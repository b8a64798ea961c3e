package helpers

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// ThumbnailSize scales (width, height) so the longest dimension becomes
// maxDim, preserving aspect ratio. Inputs already smaller are still
// scaled up; that matches how alert thumbnails are rendered.
func ThumbnailSize(width, height, maxDim int) (int, int) {
	if width <= 0 || height <= 0 || maxDim <= 0 {
		return 0, 0
	}
	if height > width {
		newWidth := width * maxDim / height
		if newWidth < 1 {
			newWidth = 1
		}
		return newWidth, maxDim
	}
	newHeight := height * maxDim / width
	if newHeight < 1 {
		newHeight = 1
	}
	return maxDim, newHeight
}

// SaveThumbnail resizes a frame to a thumbnail and writes it as JPEG
func SaveThumbnail(frame gocv.Mat, path string, maxDim int) error {
	if frame.Empty() {
		return fmt.Errorf("empty frame")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	width, height := ThumbnailSize(frame.Cols(), frame.Rows(), maxDim)
	thumb := gocv.NewMat()
	defer thumb.Close()
	gocv.Resize(frame, &thumb, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	if ok := gocv.IMWrite(path, thumb); !ok {
		return fmt.Errorf("failed to write thumbnail: %s", path)
	}
	return nil
}
