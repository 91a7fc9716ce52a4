package pagesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fvbommel/sortorder"

	// Decoders for the image formats accepted as folder input. The
	// standard library covers png, jpeg and gif; the x/image decoders
	// add the scanner formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// FolderSource reads page images from a directory. Files are ordered by
// natural sort of their names, so page-2.png comes before page-10.png.
type FolderSource struct {
	dir        string
	files      []string
	defaultDPI int
}

// NewFolderSource scans dir for supported image files. defaultDPI is used
// for files that carry no resolution metadata.
func NewFolderSource(dir string, defaultDPI int) (*FolderSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no image files in %s", ErrNoPages, dir)
	}
	sort.Sort(sortorder.Natural(files))
	return &FolderSource{dir: dir, files: files, defaultDPI: defaultDPI}, nil
}

// Count reports the number of image files found.
func (s *FolderSource) Count() int { return len(s.files) }

// Files returns the page file names in reading order.
func (s *FolderSource) Files() []string { return append([]string(nil), s.files...) }

// Load decodes the image for the given 1-based page number.
func (s *FolderSource) Load(ctx context.Context, number int) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if number < 1 || number > len(s.files) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, number, len(s.files))
	}
	name := s.files[number-1]
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading page image %s: %w", name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding page image %s: %w", name, err)
	}
	dpi := sniffDPI(data)
	if dpi <= 0 {
		dpi = s.defaultDPI
	}
	return &Page{Number: number, Name: name, Image: img, DPI: dpi}, nil
}

// Close is a no-op for folder input.
func (s *FolderSource) Close() error { return nil }
