// Package tesseract provides the local OCR engine backed by the gosseract
// bindings. Recognition output is requested as hOCR so that line and word
// structure, bounding boxes, and confidences survive into the pipeline.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/morphic/pkg/hocr"
	"github.com/gardar/morphic/pkg/ocr"
)

// Engine implements ocr.Engine using a Tesseract installation.
// Recognition calls are not safe for concurrent use; the pipeline
// serializes them.
type Engine struct {
	language      string
	clientFactory func() *gosseract.Client
}

var _ ocr.Engine = (*Engine)(nil)

// New constructs a Tesseract-backed engine for the given language
// (e.g. "eng"). An empty language uses the Tesseract default.
func New(language string) *Engine {
	return &Engine{
		language:      language,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Available verifies that the Tesseract library is usable and that the
// configured language pack is installed.
func (e *Engine) Available() error {
	c := e.clientFactory()
	defer c.Close()

	langs, err := c.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("tesseract not usable: %w", err)
	}
	if e.language == "" {
		return nil
	}
	for _, l := range langs {
		if l == e.language {
			return nil
		}
	}
	return fmt.Errorf("tesseract language %q not installed (have %v)", e.language, langs)
}

// Recognize runs Tesseract on the image and converts its hOCR output into
// the page model. The image is always submitted at full resolution.
func (e *Engine) Recognize(ctx context.Context, img image.Image, dpi int) (*hocr.Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image for OCR: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if e.language != "" {
		if err := c.SetLanguage(e.language); err != nil {
			return nil, fmt.Errorf("set language: %w", err)
		}
	}
	if dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	raw, err := c.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	doc, err := hocr.ParseHOCR([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse hOCR output: %w", err)
	}
	if len(doc.Pages) == 0 {
		// Blank input produces an hOCR document with no page element.
		return &hocr.Page{Lang: e.language}, nil
	}
	page := doc.Pages[0]
	if page.Lang == "" {
		page.Lang = e.language
	}
	return &page, nil
}
