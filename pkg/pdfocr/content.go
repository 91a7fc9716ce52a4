package pdfocr

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gardar/morphic/pkg/hocr"
)

// Text rendering mode 3 draws nothing; the glyphs only exist for
// selection and search. Words within a line are separated by an explicit
// space glyph with a small negative kern on either side, which keeps
// per-word selection behaving in most viewers.
const (
	invisibleTextMode = "3 Tr"
	wordKern          = -300
	minFontSize       = 4.0
	fontScale         = 0.75
)

// buildContentStream renders one page's operators: the invisible text
// layer first, then the scan raster on top of it.
func buildContentStream(text *hocr.Page, outputDPI int, widthPt, heightPt float64) []byte {
	var buf bytes.Buffer

	if text != nil {
		for _, line := range text.Lines {
			writeLine(&buf, line, outputDPI, heightPt)
		}
	}

	// The raster covers the full page.
	fmt.Fprintf(&buf, "q\n%s 0 0 %s 0 0 cm\n/Im1 Do\nQ\n",
		formatNumber(widthPt), formatNumber(heightPt))

	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, line hocr.Line, outputDPI int, heightPt float64) {
	if len(line.Words) == 0 {
		return
	}
	bbox := line.BBox
	if bbox.Width() == 0 && bbox.Height() == 0 {
		bbox = line.Words[0].BBox
		for _, w := range line.Words[1:] {
			bbox = bbox.Union(w.BBox)
		}
	}

	scale := pointsPerInch / float64(outputDPI)
	x := bbox.X1 * scale
	// PDF's origin is the lower left corner; image space grows downward.
	y := heightPt - bbox.Y2*scale

	size := bbox.Height() * scale * fontScale
	if size < minFontSize {
		size = minFontSize
	}

	buf.WriteString("BT\n")
	buf.WriteString(invisibleTextMode + "\n")
	fmt.Fprintf(buf, "/F1 %s Tf\n", formatNumber(size))
	fmt.Fprintf(buf, "1 0 0 1 %s %s Tm\n", formatNumber(x), formatNumber(y))

	buf.WriteString("[")
	for i, w := range line.Words {
		if i > 0 {
			fmt.Fprintf(buf, "%d( )%d", wordKern, wordKern)
		}
		buf.WriteString("(")
		buf.Write(escapeText(w.Text))
		buf.WriteString(")")
	}
	buf.WriteString("] TJ\nET\n")
}

// escapeText converts a word to a PDF literal string body. Helvetica is
// limited to single-byte encodings, so runes outside Latin-1 degrade to a
// question mark; backslashes and parentheses are escaped per the string
// syntax.
func escapeText(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		var b byte
		if r < 0x100 {
			b = byte(r)
		} else {
			b = '?'
		}
		switch b {
		case '\\', '(', ')':
			out = append(out, '\\', b)
		default:
			out = append(out, b)
		}
	}
	return out
}

// formatNumber renders a coordinate with two decimals, dropping the
// trailing zeros PDF readers do not need.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
