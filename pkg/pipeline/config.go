package pipeline

import (
	"errors"
	"fmt"

	"github.com/gardar/morphic/pkg/imageenc"
)

// Defaults applied by Config.Validate for zero-valued fields.
const (
	DefaultSourceDPI        = 600
	DefaultCompressionRatio = 20
	DefaultQueueDepth       = 5

	minQueueDepth = 1
	maxQueueDepth = 10
)

// ErrInvalidConfig wraps all configuration validation failures.
var ErrInvalidConfig = errors.New("pipeline: invalid configuration")

// ErrInvalidInput is the input-selection case of ErrInvalidConfig:
// neither or both of the input PDF and image folder were given.
var ErrInvalidInput = fmt.Errorf("%w: exactly one of input PDF and input folder must be set", ErrInvalidConfig)

// Config holds everything a run needs. Exactly one input must be set.
type Config struct {
	// InputPDF is the path to a scanned PDF to process.
	InputPDF string
	// InputFolder is a directory of page images, ordered by natural sort
	// of their file names.
	InputFolder string
	// OutputPath is where the searchable PDF is written. The file appears
	// atomically on success and never on failure.
	OutputPath string

	// SourceDPI is the capture resolution assumed for pages whose
	// metadata carries none, and the rasterization resolution for PDF
	// input. Defaults to 600.
	SourceDPI int
	// OutputDPI is the resolution of the rasters embedded in the output.
	// Defaults to SourceDPI. OCR always runs at capture resolution; only
	// the stored image is downsampled.
	OutputDPI int

	// Format selects the embedded image compression. Defaults to jp2.
	Format imageenc.Format
	// CompressionRatio applies to jp2 and jpx. Defaults to 20.
	CompressionRatio int

	// QueueDepth bounds how many decoded pages may wait between the
	// reader and the OCR stage, between 1 and 10. Defaults to 5.
	QueueDepth int

	// Dehyphenate enables merging of line-break hyphenated words.
	Dehyphenate bool

	// Verbose logs a progress line per page instead of only anomalies.
	Verbose bool

	// DebugOverlayPath, when set, additionally writes a proof sheet PDF
	// with the recognized text drawn visibly.
	DebugOverlayPath string

	// HOCRPath, when set, additionally writes the recognized text as a
	// multi-page hOCR document, with dehyphenation applied and geometry in
	// output-resolution pixels.
	HOCRPath string
}

// Validate applies defaults and rejects configurations that cannot run.
// Unsupported image formats, webp included, fail here rather than on the
// first page.
func (c *Config) Validate() error {
	if (c.InputPDF == "") == (c.InputFolder == "") {
		return ErrInvalidInput
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path must be set", ErrInvalidConfig)
	}

	if c.SourceDPI == 0 {
		c.SourceDPI = DefaultSourceDPI
	}
	if c.SourceDPI < 0 {
		return fmt.Errorf("%w: source dpi must be positive, got %d", ErrInvalidConfig, c.SourceDPI)
	}
	if c.OutputDPI == 0 {
		c.OutputDPI = c.SourceDPI
	}
	if c.OutputDPI < 0 {
		return fmt.Errorf("%w: output dpi must be positive, got %d", ErrInvalidConfig, c.OutputDPI)
	}

	if c.Format == "" {
		c.Format = imageenc.FormatJP2
	}
	if _, err := imageenc.ParseFormat(string(c.Format)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.CompressionRatio == 0 {
		c.CompressionRatio = DefaultCompressionRatio
	}
	if c.CompressionRatio < 0 {
		return fmt.Errorf("%w: compression ratio must be positive, got %d", ErrInvalidConfig, c.CompressionRatio)
	}

	if c.QueueDepth == 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.QueueDepth < minQueueDepth || c.QueueDepth > maxQueueDepth {
		return fmt.Errorf("%w: queue depth must be between %d and %d, got %d",
			ErrInvalidConfig, minQueueDepth, maxQueueDepth, c.QueueDepth)
	}
	return nil
}
