package hocr

// HOCR represents a recognized document as produced by an OCR engine.
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // Additional metadata from the hOCR head
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text.
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string            // Unique identifier
	PageNumber int               // Page number in document (1-based)
	ImageName  string            // Source image filename, if recorded
	Lang       string            // Language code for this page
	BBox       BoundingBox       // Page extent in pixels
	Lines      []Line            // Text lines in reading order
	Metadata   map[string]string // Other page properties
}

// Class assigns 'ocr_page' to the Page struct
func (Page) Class() string { return "ocr_page" }

// Line represents a line of text in reading order.
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID       string      // Unique identifier
	BBox     BoundingBox // Line extent in pixels
	Baseline string      // Baseline information, if present
	Words    []Word      // Words in this line, left to right
}

// Class assigns 'ocr_line' to the Line struct
func (Line) Class() string { return "ocr_line" }

// Word is a recognized word with bounding box.
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates in pixels
	Confidence float64     // Recognition confidence (0-1)
}

// Class assigns 'ocrx_word' to the Word struct
func (Word) Class() string { return "ocrx_word" }

// BoundingBox is an axis-aligned rectangle in pixel coordinates at a
// stated resolution. X1,Y1 is the top-left corner, X2,Y2 the bottom-right.
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 coordinates
// commonly found in hOCR 'bbox' properties.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Scale maps the box from one resolution to another by multiplying every
// coordinate with outputDPI/sourceDPI. Scaling with sourceDPI == outputDPI
// returns the box unchanged, and scaling by r1 then r2 equals scaling once
// by r1*r2.
func (b BoundingBox) Scale(sourceDPI, outputDPI int) BoundingBox {
	if sourceDPI == outputDPI {
		return b
	}
	r := float64(outputDPI) / float64(sourceDPI)
	return BoundingBox{
		X1: b.X1 * r,
		Y1: b.Y1 * r,
		X2: b.X2 * r,
		Y2: b.Y2 * r,
	}
}

// Union returns the smallest box covering both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}
