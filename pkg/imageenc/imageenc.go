// Package imageenc compresses page rasters into the byte streams embedded
// in the output PDF. Each supported format maps to one PDF stream filter:
// jp2 and jpx to JPXDecode, jpeg to DCTDecode and png to FlateDecode over
// raw RGB samples. JPEG 2000 codestreams are produced by the OpenJPEG
// opj_compress tool; there is no Go encoder for the format.
package imageenc

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// Format is an output image compression format.
type Format string

const (
	FormatJP2  Format = "jp2"
	FormatJPX  Format = "jpx"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ErrUnsupportedFormat is returned for formats that cannot be embedded in
// a PDF image XObject, webp among them.
var ErrUnsupportedFormat = errors.New("imageenc: unsupported output format")

// ParseFormat validates a format name. Unknown names and formats without a
// PDF stream filter are rejected.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJP2, FormatJPX, FormatPNG, FormatJPEG:
		return Format(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// EncodedImage is one compressed page raster ready for embedding.
type EncodedImage struct {
	// Data is the compressed stream body.
	Data []byte
	// Filter is the PDF stream filter name, without the leading slash.
	Filter string
	// Width and Height are the pixel dimensions of the raster.
	Width  int
	Height int
	// ColorSpace is the PDF color space name, without the leading slash.
	ColorSpace string
	// BitsPerComponent is the sample depth.
	BitsPerComponent int
}

const jpegQuality = 85

// Encoder compresses rasters in one fixed format. Construct with New so
// that unsupported formats and missing external tools surface before the
// first page is processed.
type Encoder struct {
	format Format
	ratio  int
	opj    string
}

// New builds an Encoder for the given format. ratio is the JPEG 2000
// compression ratio and is ignored for png and jpeg. For jp2 and jpx the
// opj_compress binary must be on PATH.
func New(format Format, ratio int) (*Encoder, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	e := &Encoder{format: format, ratio: ratio}
	if format == FormatJP2 || format == FormatJPX {
		if ratio <= 0 {
			return nil, fmt.Errorf("imageenc: compression ratio must be positive, got %d", ratio)
		}
		path, err := lookupOpj()
		if err != nil {
			return nil, err
		}
		e.opj = path
	}
	return e, nil
}

// Format reports the encoder's output format.
func (e *Encoder) Format() Format { return e.format }

// Encode compresses one raster.
func (e *Encoder) Encode(ctx context.Context, img image.Image) (*EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch e.format {
	case FormatPNG:
		return encodeFlate(img)
	case FormatJPEG:
		return encodeJPEG(img)
	case FormatJP2, FormatJPX:
		return e.encodeJP2(ctx, img)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, e.format)
}

// Downsample resizes a raster from sourceDPI to outputDPI with a Lanczos
// filter. When outputDPI is not lower than sourceDPI the raster is
// returned unchanged; upsampling adds no information.
func Downsample(img image.Image, sourceDPI, outputDPI int) image.Image {
	if outputDPI >= sourceDPI || sourceDPI <= 0 {
		return img
	}
	b := img.Bounds()
	w := b.Dx() * outputDPI / sourceDPI
	h := b.Dy() * outputDPI / sourceDPI
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// encodeFlate produces a losslessly deflated raw RGB stream, the PDF
// equivalent of png.
func encodeFlate(img image.Image) (*EncodedImage, error) {
	rgb := rawRGB(img)
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(rgb); err != nil {
		return nil, fmt.Errorf("deflating raster: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflating raster: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Data:             buf.Bytes(),
		Filter:           "FlateDecode",
		Width:            b.Dx(),
		Height:           b.Dy(),
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
	}, nil
}

func encodeJPEG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Data:             buf.Bytes(),
		Filter:           "DCTDecode",
		Width:            b.Dx(),
		Height:           b.Dy(),
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
	}, nil
}

// rawRGB flattens a raster to interleaved 8-bit RGB samples in row-major
// order.
func rawRGB(img image.Image) []byte {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := 0; y < b.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}
