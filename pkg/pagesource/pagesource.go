// Package pagesource turns scan input, either a PDF file or a folder of
// page images, into an ordered sequence of decoded raster pages. Each page
// carries the resolution it was captured at, read from the image metadata
// where present and falling back to a caller-supplied default otherwise.
package pagesource

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrNoPages is returned when the input contains no usable pages.
	ErrNoPages = errors.New("pagesource: input contains no pages")
	// ErrPageOutOfRange is returned for a page number outside [1, Count].
	ErrPageOutOfRange = errors.New("pagesource: page number out of range")
)

// Page is one decoded input page.
type Page struct {
	// Number is the 1-based position of the page in the document.
	Number int
	// Name identifies the page's origin, an image file name or a
	// synthesized "page N" label for PDF input.
	Name string
	// Image is the decoded raster at capture resolution.
	Image image.Image
	// DPI is the capture resolution of the raster.
	DPI int
}

// Source yields the pages of one input document in reading order. Pages
// are decoded lazily so that callers control how many rasters are alive
// at once.
type Source interface {
	// Count reports the total number of pages.
	Count() int
	// Load decodes the page with the given 1-based number.
	Load(ctx context.Context, number int) (*Page, error)
	// Close releases any resources held by the source.
	Close() error
}
