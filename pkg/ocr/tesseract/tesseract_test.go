package tesseract

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeBlankPage(t *testing.T) {
	e := New("eng")
	if err := e.Available(); err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.White)
		}
	}

	page, err := e.Recognize(context.Background(), img, 300)
	require.NoError(t, err)
	require.NotNil(t, page)
	// A blank page is an empty sequence of spans, not an error.
	assert.Empty(t, page.Lines)
}

func TestRecognizeCanceledContext(t *testing.T) {
	e := New("eng")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recognize(ctx, image.NewRGBA(image.Rect(0, 0, 1, 1)), 300)
	assert.ErrorIs(t, err, context.Canceled)
}
