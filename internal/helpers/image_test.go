package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbnailSize(t *testing.T) {
	cases := []struct {
		name   string
		w, h   int
		maxDim int
		wantW  int
		wantH  int
	}{
		{"landscape", 1920, 1080, 400, 400, 225},
		{"portrait", 1080, 1920, 400, 225, 400},
		{"square", 640, 640, 400, 400, 400},
		{"upscale small input", 200, 100, 400, 400, 200},
		{"extreme ratio keeps at least one pixel", 4000, 2, 400, 400, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := ThumbnailSize(tc.w, tc.h, tc.maxDim)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestThumbnailSizeDegenerateInput(t *testing.T) {
	w, h := ThumbnailSize(0, 100, 400)
	assert.Zero(t, w)
	assert.Zero(t, h)

	w, h = ThumbnailSize(100, 100, 0)
	assert.Zero(t, w)
	assert.Zero(t, h)
}
