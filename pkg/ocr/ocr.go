// Package ocr defines the contract between the pipeline and OCR engines.
//
// An Engine recognizes text on a single raster image and reports it as an
// hocr.Page whose coordinates are expressed at the image's own resolution.
// Recognition never depends on the resolution the output document will be
// rendered at; callers re-project coordinates afterwards.
//
// Engines additionally report their availability so that a missing backend
// can be detected once at startup instead of failing page by page.
package ocr

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/gardar/morphic/pkg/hocr"
)

// Engine recognizes text on one raster image.
type Engine interface {
	// Name identifies the engine for logging.
	Name() string
	// Available reports whether the underlying recognition capability can
	// be used. Called once before any page is processed.
	Available() error
	// Recognize runs OCR on the image at its native resolution. dpi is a
	// hint for layout heuristics; it never changes the coordinate space of
	// the returned page. An empty page yields a page with no lines, not an
	// error.
	Recognize(ctx context.Context, img image.Image, dpi int) (*hocr.Page, error)
}

// SelectEngine probes primary and returns it when usable. When primary is
// unavailable and a fallback exists, the run degrades to the fallback with
// a single warning instead of failing. With no usable engine at all the
// error is fatal and reported before any page is processed.
func SelectEngine(primary, fallback Engine, logw io.Writer) (Engine, error) {
	if primary == nil {
		return nil, fmt.Errorf("no OCR engine configured")
	}
	err := primary.Available()
	if err == nil {
		return primary, nil
	}
	if fallback == nil {
		return nil, fmt.Errorf("OCR engine %s unavailable: %w", primary.Name(), err)
	}
	if ferr := fallback.Available(); ferr != nil {
		return nil, fmt.Errorf("OCR engine %s unavailable (%v); fallback %s unavailable: %w",
			primary.Name(), err, fallback.Name(), ferr)
	}
	fmt.Fprintf(logw, "Warning: OCR engine %s unavailable (%v), falling back to %s\n",
		primary.Name(), err, fallback.Name())
	return fallback, nil
}
