// Package overlay renders debug proof sheets: a PDF where the recognized
// text is drawn visibly in red over the page raster, each page's text on
// its own optional content layer. Proof sheets exist to eyeball OCR
// placement and dehyphenation results; the production output comes from
// pkg/pdfocr.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/morphic/pkg/hocr"
)

// FontConfig controls the proof sheet font.
type FontConfig struct {
	Name string
	// Size is the base size in points; each word is rescaled to fill its
	// detected box.
	Size float64
	// AscentRatio positions the baseline within a word's box.
	AscentRatio float64
}

// DefaultFontConfig returns the settings used when the caller passes a
// zero FontConfig.
func DefaultFontConfig() FontConfig {
	return FontConfig{Name: "Helvetica", Size: 10, AscentRatio: 0.8}
}

// Renderer accumulates proof sheet pages.
type Renderer struct {
	pdf   *fpdf.Fpdf
	font  FontConfig
	pages int
}

// NewRenderer creates an empty proof sheet.
func NewRenderer(font FontConfig) *Renderer {
	if font == (FontConfig{}) {
		font = DefaultFontConfig()
	}
	return &Renderer{
		pdf:  fpdf.New("P", "pt", "A4", ""),
		font: font,
	}
}

// AddPage draws one page: the raster as background, then the text layer.
// Word geometry is in output-resolution pixels; dpi converts it to
// points.
func (r *Renderer) AddPage(number int, img image.Image, text *hocr.Page, dpi int) error {
	scale := 72.0 / float64(dpi)
	w := float64(img.Bounds().Dx()) * scale
	h := float64(img.Bounds().Dy()) * scale
	r.pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding proof raster for page %d: %w", number, err)
	}
	imageName := fmt.Sprintf("img%d", number)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader(imageName, opts, &buf)
	r.pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

	if text != nil {
		r.drawTextLayer(text, number, scale)
	}

	r.pages++
	if r.pdf.Err() {
		return fmt.Errorf("drawing proof page %d: %w", number, r.pdf.Error())
	}
	return nil
}

// PageCount reports how many pages have been added.
func (r *Renderer) PageCount() int { return r.pages }

// Output writes the proof sheet PDF.
func (r *Renderer) Output(w io.Writer) error {
	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("generating proof sheet: %w", err)
	}
	return nil
}

func (r *Renderer) drawTextLayer(page *hocr.Page, number int, scale float64) {
	layer := r.pdf.AddLayer(fmt.Sprintf("OCR Text (Page %d)", number), true)
	r.pdf.BeginLayer(layer)
	r.pdf.SetFont(r.font.Name, "", r.font.Size)
	r.pdf.SetTextColor(255, 0, 0)
	r.pdf.SetDrawColor(255, 0, 0)

	for _, line := range page.Lines {
		for _, word := range line.Words {
			r.drawWord(word, scale)
		}
	}
	r.pdf.EndLayer()
}

// drawWord places one word scaled to fill its detected box, baseline set
// by the ascent ratio.
func (r *Renderer) drawWord(word hocr.Word, scale float64) {
	x := word.BBox.X1 * scale
	y := word.BBox.Y1 * scale
	wordWidth := word.BBox.Width() * scale
	wordHeight := word.BBox.Height() * scale

	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		latin1 = word.Text
	}

	strWidth := r.pdf.GetStringWidth(latin1)
	if strWidth > 0 {
		r.pdf.SetFontSize(r.font.Size * wordWidth / strWidth)
	}
	fontSize, _ := r.pdf.GetFontSize()

	r.pdf.Text(x, y+fontSize*r.font.AscentRatio, latin1)
	r.pdf.SetFontSize(r.font.Size)

	r.pdf.Rect(x, y, wordWidth, wordHeight, "D")
}
