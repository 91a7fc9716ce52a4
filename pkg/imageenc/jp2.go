package imageenc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

func lookupOpj() (string, error) {
	path, err := exec.LookPath("opj_compress")
	if err != nil {
		return "", fmt.Errorf("opj_compress not found, install openjpeg tools: %w", err)
	}
	return path, nil
}

// encodeJP2 shells out to opj_compress. The raster goes in as binary PPM,
// the only interchange format every OpenJPEG build reads, and comes back
// as a jp2 container, which PDF's JPXDecode filter accepts for both the
// jp2 and jpx variants.
func (e *Encoder) encodeJP2(ctx context.Context, img image.Image) (*EncodedImage, error) {
	dir, err := os.MkdirTemp("", "morphic-jp2-")
	if err != nil {
		return nil, fmt.Errorf("creating jp2 work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	id := uuid.NewString()
	in := filepath.Join(dir, id+".ppm")
	out := filepath.Join(dir, id+".jp2")

	if err := os.WriteFile(in, encodePPM(img), 0o600); err != nil {
		return nil, fmt.Errorf("writing jp2 input: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.opj,
		"-i", in,
		"-o", out,
		"-r", strconv.Itoa(e.ratio))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("opj_compress: %w: %s", err, stderr.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading jp2 output: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Data:             data,
		Filter:           "JPXDecode",
		Width:            b.Dx(),
		Height:           b.Dy(),
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
	}, nil
}

// encodePPM serializes a raster as binary P6 PPM.
func encodePPM(img image.Image) []byte {
	b := img.Bounds()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", b.Dx(), b.Dy())
	buf.Write(rawRGB(img))
	return buf.Bytes()
}
