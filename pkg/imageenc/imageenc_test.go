package imageenc

import (
	"bytes"
	"compress/zlib"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"jp2", "jpx", "png", "jpeg"} {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), got)
	}

	_, err := ParseFormat("webp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = ParseFormat("bmp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewRejectsWebp(t *testing.T) {
	_, err := New(Format("webp"), 20)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncodeFlate(t *testing.T) {
	enc, err := New(FormatPNG, 0)
	require.NoError(t, err)

	got, err := enc.Encode(context.Background(), testImage(10, 6))
	require.NoError(t, err)
	assert.Equal(t, "FlateDecode", got.Filter)
	assert.Equal(t, 10, got.Width)
	assert.Equal(t, 6, got.Height)
	assert.Equal(t, "DeviceRGB", got.ColorSpace)
	assert.Equal(t, 8, got.BitsPerComponent)

	zr, err := zlib.NewReader(bytes.NewReader(got.Data))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Len(t, raw, 10*6*3)
	// First sample of the test pattern.
	assert.Equal(t, []byte{0, 0, 128}, raw[:3])
}

func TestEncodeJPEG(t *testing.T) {
	enc, err := New(FormatJPEG, 0)
	require.NoError(t, err)

	got, err := enc.Encode(context.Background(), testImage(12, 8))
	require.NoError(t, err)
	assert.Equal(t, "DCTDecode", got.Filter)

	img, err := jpeg.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestEncodeJP2(t *testing.T) {
	if _, err := exec.LookPath("opj_compress"); err != nil {
		t.Skip("opj_compress not installed")
	}
	enc, err := New(FormatJP2, 20)
	require.NoError(t, err)

	got, err := enc.Encode(context.Background(), testImage(32, 32))
	require.NoError(t, err)
	assert.Equal(t, "JPXDecode", got.Filter)
	assert.NotEmpty(t, got.Data)
	assert.Equal(t, 32, got.Width)
}

func TestNewJP2RequiresPositiveRatio(t *testing.T) {
	if _, err := exec.LookPath("opj_compress"); err != nil {
		t.Skip("opj_compress not installed")
	}
	_, err := New(FormatJP2, 0)
	assert.Error(t, err)
}

func TestDownsample(t *testing.T) {
	img := testImage(600, 400)

	half := Downsample(img, 600, 300)
	assert.Equal(t, 300, half.Bounds().Dx())
	assert.Equal(t, 200, half.Bounds().Dy())

	// Equal and higher targets leave the raster alone.
	assert.Equal(t, img, Downsample(img, 600, 600))
	assert.Equal(t, img, Downsample(img, 300, 600))
}

func TestEncodePPMHeader(t *testing.T) {
	data := encodePPM(testImage(4, 2))
	assert.True(t, bytes.HasPrefix(data, []byte("P6\n4 2\n255\n")))
	assert.Len(t, data, len("P6\n4 2\n255\n")+4*2*3)
}
