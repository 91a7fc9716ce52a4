// Package hocr implements parsing and generation of hOCR data, the
// HTML-based standard format for representing OCR results.
//
// The package keeps a flat object model matching what the pipeline needs:
// Document → Pages → Lines → Words, each carrying a pixel bounding box at
// the resolution the recognition ran at. Word confidences are normalized
// to the 0-1 range regardless of how the producing engine reports them.
//
// Main entry points:
//
// - ParseHOCR: parses hOCR HTML (as emitted by Tesseract) into the model
// - GenerateHOCRDocument: renders the model back to valid hOCR HTML
// - BoundingBox.Scale: re-projects coordinates between resolutions
package hocr
