// Package pipeline drives the scan-to-searchable-PDF conversion. A reader
// goroutine decodes input pages into a bounded queue; a single worker pulls
// pages off the queue, runs OCR at capture resolution, repairs hyphenation,
// rescales the text geometry to the output resolution and hands the page to
// the document assembler.
//
// The worker holds exactly one finished page back until the next page has
// been recognized, so that a word split across a page boundary can be
// merged before the earlier page is written. Together with the queue bound
// this keeps memory flat: at most QueueDepth decoded rasters wait between
// reader and worker (the one in the reader's hand included) plus the one
// under active consumption, QueueDepth+1 in total.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gardar/morphic/pkg/dehyphen"
	"github.com/gardar/morphic/pkg/dict"
	"github.com/gardar/morphic/pkg/hocr"
	"github.com/gardar/morphic/pkg/imageenc"
	"github.com/gardar/morphic/pkg/ocr"
	"github.com/gardar/morphic/pkg/overlay"
	"github.com/gardar/morphic/pkg/pagesource"
	"github.com/gardar/morphic/pkg/pdfocr"
)

// ErrNotReusable is returned by Run on a pipeline that has already run.
var ErrNotReusable = errors.New("pipeline: pipeline instances are single use")

// State is the lifecycle phase of a Pipeline.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stats summarizes a completed run.
type Stats struct {
	Pages           int
	WordsRecognized int
	HyphenMerges    int
	BytesWritten    int64
	Duration        time.Duration
}

// Pipeline converts one input document. Construct with New, call Run once.
type Pipeline struct {
	cfg     Config
	source  pagesource.Source
	engine  ocr.Engine
	dehyph  *dehyphen.Dehyphenator
	encoder *imageenc.Encoder
	logger  *log.Logger
	metrics *Metrics

	mu    sync.Mutex
	state State
	stats Stats
}

// Option adjusts optional pipeline collaborators.
type Option func(*Pipeline)

// WithLogger routes progress logging. The default writes to stderr.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics attaches run counters. Without it metrics are registered on
// a throwaway registry.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New validates cfg and assembles a pipeline. oracle may be
// dict.Unavailable{} to disable dictionary checks; cfg.Dehyphenate without
// a usable oracle degrades to a warning and no merging. Configuration
// errors, including unsupported output formats, surface here and never
// mid-run.
func New(cfg Config, source pagesource.Source, engine ocr.Engine, oracle dict.Oracle, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	encoder, err := imageenc.New(cfg.Format, cfg.CompressionRatio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	p := &Pipeline{
		cfg:     cfg,
		source:  source,
		engine:  engine,
		encoder: encoder,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(newThrowawayRegistry())
	}

	if cfg.Dehyphenate {
		if !dict.IsAvailable(oracle) {
			p.logger.Printf("dehyphenation requested but no dictionary is available, skipping")
		} else {
			p.dehyph = dehyphen.New(oracle)
		}
	}
	return p, nil
}

// State reports the current lifecycle phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run processes every page and writes the output PDF. On any failure the
// run aborts, no output file is left behind and the error describes the
// failing page. A pipeline cannot be run twice.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return Stats{}, ErrNotReusable
	}
	p.state = StateRunning
	p.mu.Unlock()

	start := time.Now()
	err := p.run(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Duration = time.Since(start)
	if err != nil {
		p.state = StateFailed
		return p.stats, err
	}
	p.state = StateCompleted
	return p.stats, nil
}

// run is the failable body of Run.
func (p *Pipeline) run(ctx context.Context) error {
	total := p.source.Count()
	if total == 0 {
		return pagesource.ErrNoPages
	}
	p.logger.Printf("processing %d pages (source %d dpi, output %d dpi, format %s, queue depth %d)",
		total, p.cfg.SourceDPI, p.cfg.OutputDPI, p.cfg.Format, p.cfg.QueueDepth)

	out, err := newTransactionalFile(p.cfg.OutputPath)
	if err != nil {
		return err
	}
	defer out.discard()

	assembler, err := pdfocr.NewAssembler(out)
	if err != nil {
		return err
	}

	var proof *overlay.Renderer
	if p.cfg.DebugOverlayPath != "" {
		proof = overlay.NewRenderer(overlay.FontConfig{})
	}
	var hocrDoc *hocr.HOCR
	if p.cfg.HOCRPath != "" {
		hocrDoc = &hocr.HOCR{Title: filepath.Base(p.cfg.OutputPath)}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages, readErr := p.startReader(ctx, total)

	var pending *processedPage
	for page := range pages {
		current, err := p.processPage(ctx, page)
		if err != nil {
			p.metrics.PagesFailed.Inc()
			return fmt.Errorf("page %d (%s): %w", page.Number, page.Name, err)
		}
		if pending != nil {
			p.resolveBoundary(pending, current)
			if err := p.emit(assembler, proof, hocrDoc, pending); err != nil {
				return err
			}
		}
		pending = current
	}
	if err := <-readErr; err != nil {
		return err
	}
	if pending != nil {
		// Final page: a trailing hyphen has no continuation to merge.
		if err := p.emit(assembler, proof, hocrDoc, pending); err != nil {
			return err
		}
	}

	if err := assembler.Finalize(); err != nil {
		return err
	}
	if proof != nil {
		if err := p.writeProofSheet(proof); err != nil {
			return err
		}
	}
	if hocrDoc != nil {
		if err := p.writeHOCR(hocrDoc); err != nil {
			return err
		}
	}
	if err := out.commit(); err != nil {
		return err
	}
	p.mu.Lock()
	p.stats.BytesWritten = out.size
	p.mu.Unlock()
	p.metrics.BytesWritten.Add(float64(out.size))
	p.logger.Printf("wrote %s: %d pages, %d words, %d hyphen merges, %d bytes",
		p.cfg.OutputPath, p.stats.Pages, p.stats.WordsRecognized, p.stats.HyphenMerges, out.size)
	return nil
}

// startReader decodes pages in order into a channel bounded by QueueDepth.
// The page the reader holds while blocked on send occupies one of the
// QueueDepth slots, so the channel buffers one less; with the page the
// worker is consuming, at most QueueDepth+1 decoded rasters are resident.
// The error channel yields exactly one value after the page channel closes.
func (p *Pipeline) startReader(ctx context.Context, total int) (<-chan *pagesource.Page, <-chan error) {
	pages := make(chan *pagesource.Page, p.cfg.QueueDepth-1)
	errc := make(chan error, 1)
	go func() {
		defer close(pages)
		for n := 1; n <= total; n++ {
			page, err := p.source.Load(ctx, n)
			if err != nil {
				errc <- fmt.Errorf("loading page %d: %w", n, err)
				return
			}
			select {
			case pages <- page:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- nil
	}()
	return pages, errc
}

// processedPage is a page whose raster has already been compressed. Text
// geometry stays in capture-resolution pixels until the page is emitted,
// so a boundary merge with the following page sees consistent coordinates.
type processedPage struct {
	number  int
	name    string
	dpi     int
	encoded *imageenc.EncodedImage
	text    *hocr.Page
	// raster is retained only when a proof sheet is requested.
	raster image.Image
}

// processPage runs OCR, in-page dehyphenation and raster encoding for one
// page. The decoded raster is released before returning unless the proof
// sheet needs it.
func (p *Pipeline) processPage(ctx context.Context, page *pagesource.Page) (*processedPage, error) {
	begin := time.Now()

	if p.cfg.OutputDPI > page.DPI {
		p.logger.Printf("page %d: output %d dpi exceeds capture %d dpi, embedding without upsampling",
			page.Number, p.cfg.OutputDPI, page.DPI)
	}

	text, err := p.engine.Recognize(ctx, page.Image, page.DPI)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if text == nil {
		text = &hocr.Page{}
	}
	words := hocr.WordCount(text)
	if words == 0 {
		p.logger.Printf("page %d: no text recognized", page.Number)
	}

	if p.dehyph != nil {
		merges := p.dehyph.ProcessPage(text)
		p.recordMerges(merges)
	}

	raster := imageenc.Downsample(page.Image, page.DPI, p.cfg.OutputDPI)
	encoded, err := p.encoder.Encode(ctx, raster)
	if err != nil {
		return nil, fmt.Errorf("encoding raster: %w", err)
	}

	out := &processedPage{
		number:  page.Number,
		name:    page.Name,
		dpi:     page.DPI,
		encoded: encoded,
		text:    text,
	}
	if p.cfg.DebugOverlayPath != "" {
		out.raster = raster
	}

	p.mu.Lock()
	p.stats.WordsRecognized += words
	p.mu.Unlock()
	p.metrics.WordsRecognized.Add(float64(words))
	p.metrics.PageSeconds.Observe(time.Since(begin).Seconds())
	return out, nil
}

// resolveBoundary merges a hyphenated fragment spanning from prev's last
// line onto next's first line.
func (p *Pipeline) resolveBoundary(prev, next *processedPage) {
	if p.dehyph == nil {
		return
	}
	if p.dehyph.ResolveBoundary(prev.text, next.text) {
		p.recordMerges(1)
	}
}

// emit rescales a page's text geometry to the output resolution and writes
// the page to the assembler and to any debug artifacts.
func (p *Pipeline) emit(assembler *pdfocr.Assembler, proof *overlay.Renderer, hocrDoc *hocr.HOCR, page *processedPage) error {
	dpi := p.effectiveOutputDPI(page.dpi)
	rescalePage(page.text, page.dpi, dpi)
	if err := assembler.AppendPage(page.number, page.encoded, page.text, dpi); err != nil {
		return fmt.Errorf("assembling page %d: %w", page.number, err)
	}
	if proof != nil {
		if err := proof.AddPage(page.number, page.raster, page.text, dpi); err != nil {
			return err
		}
		page.raster = nil
	}
	if hocrDoc != nil {
		hp := *page.text
		hp.PageNumber = page.number
		hp.ImageName = page.name
		hocrDoc.Pages = append(hocrDoc.Pages, hp)
	}

	if p.cfg.Verbose {
		p.logger.Printf("page %d (%s): %d words", page.number, page.name, hocr.WordCount(page.text))
	}

	p.mu.Lock()
	p.stats.Pages++
	p.mu.Unlock()
	p.metrics.PagesProcessed.Inc()
	return nil
}

// effectiveOutputDPI caps the output resolution at the page's capture
// resolution, mirroring Downsample's refusal to upsample.
func (p *Pipeline) effectiveOutputDPI(pageDPI int) int {
	if p.cfg.OutputDPI > pageDPI {
		return pageDPI
	}
	return p.cfg.OutputDPI
}

func (p *Pipeline) recordMerges(n int) {
	if n == 0 {
		return
	}
	p.mu.Lock()
	p.stats.HyphenMerges += n
	p.mu.Unlock()
	p.metrics.HyphenMerges.Add(float64(n))
}

// writeHOCR saves the recognized text as a standalone hOCR artifact.
func (p *Pipeline) writeHOCR(doc *hocr.HOCR) error {
	rendered, err := hocr.GenerateHOCRDocument(doc)
	if err != nil {
		return fmt.Errorf("generating hocr: %w", err)
	}
	if err := os.WriteFile(p.cfg.HOCRPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing hocr: %w", err)
	}
	return nil
}

func (p *Pipeline) writeProofSheet(proof *overlay.Renderer) error {
	f, err := os.Create(p.cfg.DebugOverlayPath)
	if err != nil {
		return fmt.Errorf("creating proof sheet: %w", err)
	}
	if err := proof.Output(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// rescalePage maps every bounding box from capture pixels to output
// pixels.
func rescalePage(page *hocr.Page, sourceDPI, outputDPI int) {
	if page == nil || sourceDPI == outputDPI {
		return
	}
	page.BBox = page.BBox.Scale(sourceDPI, outputDPI)
	for i := range page.Lines {
		line := &page.Lines[i]
		line.BBox = line.BBox.Scale(sourceDPI, outputDPI)
		for j := range line.Words {
			line.Words[j].BBox = line.Words[j].BBox.Scale(sourceDPI, outputDPI)
		}
	}
}

// transactionalFile writes to a temporary sibling of the target path and
// renames it into place on commit. discard is safe after commit.
type transactionalFile struct {
	*os.File
	target    string
	size      int64
	committed bool
}

func newTransactionalFile(target string) (*transactionalFile, error) {
	tmp := filepath.Join(filepath.Dir(target), "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return &transactionalFile{File: f, target: target}, nil
}

func (t *transactionalFile) commit() error {
	if info, err := t.File.Stat(); err == nil {
		t.size = info.Size()
	}
	if err := t.File.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(t.Name(), t.target); err != nil {
		return fmt.Errorf("moving output into place: %w", err)
	}
	t.committed = true
	return nil
}

func (t *transactionalFile) discard() {
	if t.committed {
		return
	}
	t.File.Close()
	os.Remove(t.Name())
}
