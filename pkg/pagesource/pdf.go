package pagesource

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PDFSource rasterizes pages of a PDF file one at a time through the
// poppler tools. Rendering page by page keeps memory flat regardless of
// document length; pdftoppm is invoked at the requested resolution so the
// raster matches the capture DPI handed to OCR.
type PDFSource struct {
	path    string
	dpi     int
	pages   int
	workDir string

	pdfinfo  string
	pdftoppm string
}

// NewPDFSource opens the PDF at path and determines its page count.
// Rendering happens at dpi. Returns an error when the poppler tools are
// not installed or the document has no pages.
func NewPDFSource(ctx context.Context, path string, dpi int) (*PDFSource, error) {
	pdfinfo, err := exec.LookPath("pdfinfo")
	if err != nil {
		return nil, fmt.Errorf("pdfinfo not found, install poppler-utils: %w", err)
	}
	pdftoppm, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm not found, install poppler-utils: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening input PDF: %w", err)
	}
	pages, err := pdfPageCount(ctx, pdfinfo, path)
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, path)
	}
	workDir, err := os.MkdirTemp("", "morphic-raster-")
	if err != nil {
		return nil, fmt.Errorf("creating raster work dir: %w", err)
	}
	return &PDFSource{
		path:     path,
		dpi:      dpi,
		pages:    pages,
		workDir:  workDir,
		pdfinfo:  pdfinfo,
		pdftoppm: pdftoppm,
	}, nil
}

func pdfPageCount(ctx context.Context, pdfinfo, path string) (int, error) {
	out, err := exec.CommandContext(ctx, pdfinfo, path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo %s: %w", path, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "Pages:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return 0, fmt.Errorf("parsing pdfinfo page count %q: %w", rest, err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("pdfinfo output for %s has no page count", path)
}

// Count reports the number of pages in the PDF.
func (s *PDFSource) Count() int { return s.pages }

// Load renders the given 1-based page to PNG and decodes it. The
// intermediate file is removed before returning.
func (s *PDFSource) Load(ctx context.Context, number int) (*Page, error) {
	if number < 1 || number > s.pages {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, number, s.pages)
	}
	prefix := filepath.Join(s.workDir, uuid.NewString())
	out := prefix + ".png"
	defer os.Remove(out)

	pageArg := strconv.Itoa(number)
	cmd := exec.CommandContext(ctx, s.pdftoppm,
		"-png",
		"-r", strconv.Itoa(s.dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
		s.path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", number, err, stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("opening rendered page %d: %w", number, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered page %d: %w", number, err)
	}
	return &Page{
		Number: number,
		Name:   fmt.Sprintf("page %d", number),
		Image:  img,
		DPI:    s.dpi,
	}, nil
}

// Close removes the raster work directory.
func (s *PDFSource) Close() error {
	return os.RemoveAll(s.workDir)
}
