// Package pdfocr assembles the searchable output PDF. Each page carries
// the compressed scan raster and, underneath it, an invisible text layer
// whose words sit at the positions OCR reported, so selection and search
// line up with the printed page.
//
// The writer emits PDF objects as pages arrive instead of holding the
// document in memory; only the cross-reference bookkeeping is retained
// until Finalize.
package pdfocr

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gardar/morphic/pkg/hocr"
	"github.com/gardar/morphic/pkg/imageenc"
)

var (
	// ErrOutOfOrder is returned when pages are appended out of sequence.
	ErrOutOfOrder = errors.New("pdfocr: page appended out of order")
	// ErrFinalized is returned for any call after Finalize.
	ErrFinalized = errors.New("pdfocr: document already finalized")
	// ErrNoPages is returned by Finalize on an empty document.
	ErrNoPages = errors.New("pdfocr: document has no pages")
)

const pointsPerInch = 72.0

// Reserved object numbers. Their bodies are written at Finalize; page
// objects are numbered from firstPageObject upward as pages arrive.
const (
	objCatalog      = 1
	objPages        = 2
	objFont         = 3
	firstPageObject = 4
)

// Assembler writes a searchable PDF incrementally. Pages must be appended
// strictly in order starting at 1, and Finalize may be called exactly
// once.
type Assembler struct {
	w         *offsetWriter
	offsets   map[int]int64
	pageObjs  []int
	nextObj   int
	nextPage  int
	finalized bool
}

// NewAssembler starts a document on w and writes the file header. The
// binary comment line marks the file as non-ASCII for transfer tools.
func NewAssembler(w io.Writer) (*Assembler, error) {
	a := &Assembler{
		w:        &offsetWriter{w: w},
		offsets:  make(map[int]int64),
		nextObj:  firstPageObject,
		nextPage: 1,
	}
	a.w.writeString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
	if a.w.err != nil {
		return nil, fmt.Errorf("writing pdf header: %w", a.w.err)
	}
	return a, nil
}

// AppendPage writes page number's raster and text layer. text holds word
// geometry in output-resolution pixels; outputDPI converts it to PDF
// points. text may be empty for pages where OCR found nothing.
func (a *Assembler) AppendPage(number int, img *imageenc.EncodedImage, text *hocr.Page, outputDPI int) error {
	if a.finalized {
		return ErrFinalized
	}
	if number != a.nextPage {
		return fmt.Errorf("%w: got page %d, want %d", ErrOutOfOrder, number, a.nextPage)
	}
	if img == nil {
		return fmt.Errorf("pdfocr: page %d has no image", number)
	}

	widthPt := float64(img.Width) / float64(outputDPI) * pointsPerInch
	heightPt := float64(img.Height) / float64(outputDPI) * pointsPerInch

	content := buildContentStream(text, outputDPI, widthPt, heightPt)
	contentObj := a.writeStream(content, "")
	imageObj := a.writeStream(img.Data, fmt.Sprintf(
		"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d /Filter /%s",
		img.Width, img.Height, img.ColorSpace, img.BitsPerComponent, img.Filter))

	pageObj := a.beginObject()
	a.w.writeString(fmt.Sprintf(
		"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] "+
			"/Resources << /Font << /F1 %d 0 R >> /XObject << /Im1 %d 0 R >> >> "+
			"/Contents %d 0 R >>\nendobj\n",
		objPages, formatNumber(widthPt), formatNumber(heightPt),
		objFont, imageObj, contentObj))

	if a.w.err != nil {
		return fmt.Errorf("writing page %d: %w", number, a.w.err)
	}
	a.pageObjs = append(a.pageObjs, pageObj)
	a.nextPage++
	return nil
}

// Finalize writes the page tree, catalog, font, cross-reference table and
// trailer. The Assembler is unusable afterwards.
func (a *Assembler) Finalize() error {
	if a.finalized {
		return ErrFinalized
	}
	if len(a.pageObjs) == 0 {
		return ErrNoPages
	}
	a.finalized = true

	kids := make([]string, len(a.pageObjs))
	for i, n := range a.pageObjs {
		kids[i] = fmt.Sprintf("%d 0 R", n)
	}
	a.writeObjectAt(objPages, fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(a.pageObjs)))
	a.writeObjectAt(objCatalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", objPages))
	a.writeObjectAt(objFont,
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	xrefOffset := a.w.n
	size := a.nextObj
	a.w.writeString(fmt.Sprintf("xref\n0 %d\n", size))
	a.w.writeString("0000000000 65535 f \n")
	nums := make([]int, 0, len(a.offsets))
	for n := range a.offsets {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		a.w.writeString(fmt.Sprintf("%010d 00000 n \n", a.offsets[n]))
	}
	a.w.writeString(fmt.Sprintf(
		"trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		size, objCatalog, xrefOffset))

	if a.w.err != nil {
		return fmt.Errorf("finalizing pdf: %w", a.w.err)
	}
	return nil
}

// PageCount reports how many pages have been appended.
func (a *Assembler) PageCount() int { return len(a.pageObjs) }

// beginObject allocates the next object number, records its offset and
// writes the object header.
func (a *Assembler) beginObject() int {
	n := a.nextObj
	a.nextObj++
	a.offsets[n] = a.w.n
	a.w.writeString(fmt.Sprintf("%d 0 obj\n", n))
	return n
}

// writeObjectAt writes a complete non-stream object under a reserved
// number.
func (a *Assembler) writeObjectAt(n int, body string) {
	a.offsets[n] = a.w.n
	a.w.writeString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", n, body))
}

// writeStream writes a stream object and returns its number. extraDict
// holds dictionary entries beyond /Length.
func (a *Assembler) writeStream(data []byte, extraDict string) int {
	n := a.beginObject()
	if extraDict != "" {
		a.w.writeString(fmt.Sprintf("<< %s /Length %d >>\nstream\n", extraDict, len(data)))
	} else {
		a.w.writeString(fmt.Sprintf("<< /Length %d >>\nstream\n", len(data)))
	}
	a.w.write(data)
	a.w.writeString("\nendstream\nendobj\n")
	return n
}

// offsetWriter tracks the byte offset of everything written, which the
// cross-reference table needs, and latches the first error.
type offsetWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (o *offsetWriter) write(p []byte) {
	if o.err != nil {
		return
	}
	n, err := o.w.Write(p)
	o.n += int64(n)
	o.err = err
}

func (o *offsetWriter) writeString(s string) { o.write([]byte(s)) }
