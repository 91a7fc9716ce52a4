package overlay

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/morphic/pkg/hocr"
)

func proofImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 120, 160))
	for y := 0; y < 160; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func proofText() *hocr.Page {
	return &hocr.Page{Lines: []hocr.Line{{
		BBox: hocr.BoundingBox{X1: 10, Y1: 10, X2: 110, Y2: 30},
		Words: []hocr.Word{
			{Text: "proof", BBox: hocr.BoundingBox{X1: 10, Y1: 10, X2: 55, Y2: 30}},
			{Text: "sheet", BBox: hocr.BoundingBox{X1: 60, Y1: 10, X2: 110, Y2: 30}},
		},
	}}}
}

func TestRendererOutput(t *testing.T) {
	r := NewRenderer(FontConfig{})
	require.NoError(t, r.AddPage(1, proofImage(), proofText(), 300))
	require.NoError(t, r.AddPage(2, proofImage(), nil, 300))
	assert.Equal(t, 2, r.PageCount())

	var buf bytes.Buffer
	require.NoError(t, r.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestDefaultFontConfig(t *testing.T) {
	cfg := DefaultFontConfig()
	assert.Equal(t, "Helvetica", cfg.Name)
	assert.InDelta(t, 10.0, cfg.Size, 0.001)
}
