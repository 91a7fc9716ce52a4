package pagesource

import (
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFolderSourceNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-10.png", "page-1.png", "page-2.png"} {
		writePNG(t, dir, name, 8, 8)
	}

	src, err := NewFolderSource(dir, 600)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 3, src.Count())
	assert.Equal(t, []string{"page-1.png", "page-2.png", "page-10.png"}, src.Files())
}

func TestFolderSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "scan.png", 16, 24)

	src, err := NewFolderSource(dir, 450)
	require.NoError(t, err)

	page, err := src.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, "scan.png", page.Name)
	assert.Equal(t, 16, page.Image.Bounds().Dx())
	assert.Equal(t, 24, page.Image.Bounds().Dy())
	// Plain encoded PNG carries no pHYs chunk, so the default applies.
	assert.Equal(t, 450, page.DPI)
}

func TestFolderSourceIgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "scan.png", 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src, err := NewFolderSource(dir, 600)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Count())
}

func TestFolderSourceEmptyDir(t *testing.T) {
	_, err := NewFolderSource(t.TempDir(), 600)
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestFolderSourceLoadOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "scan.png", 8, 8)

	src, err := NewFolderSource(dir, 600)
	require.NoError(t, err)

	_, err = src.Load(context.Background(), 0)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = src.Load(context.Background(), 2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

// pngWithPHYs builds a minimal chunk stream that sniffDPI can parse; it is
// not a decodable image.
func pngWithPHYs(ppm uint32, unit byte) []byte {
	data := append([]byte(nil), pngSignature...)
	chunk := make([]byte, 12+9)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = unit
	return append(data, chunk...)
}

func TestSniffDPIPNG(t *testing.T) {
	// 11811 pixels per meter is 300 dpi.
	assert.Equal(t, 300, sniffDPI(pngWithPHYs(11811, 1)))
	// Unit 0 is aspect ratio only.
	assert.Equal(t, 0, sniffDPI(pngWithPHYs(11811, 0)))
}

func TestSniffDPIJFIF(t *testing.T) {
	seg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	seg = append(seg, []byte("JFIF\x00")...)
	seg = append(seg, 1, 2) // version
	seg = append(seg, 1)    // unit: dpi
	den := make([]byte, 4)
	binary.BigEndian.PutUint16(den[0:2], 240)
	binary.BigEndian.PutUint16(den[2:4], 240)
	seg = append(seg, den...)
	seg = append(seg, 0, 0) // no thumbnail

	assert.Equal(t, 240, sniffDPI(seg))
}

func TestSniffDPIUnknownFormat(t *testing.T) {
	assert.Equal(t, 0, sniffDPI([]byte("not an image")))
}
