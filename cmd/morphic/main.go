// morphic converts scanned documents into searchable PDFs.
//
// The input is either a scanned PDF or a folder of page images. Each page
// is OCR'd at its capture resolution, hyphenated line breaks are repaired
// against a dictionary, and the page raster is recompressed at the output
// resolution with an invisible text layer aligned to the printed words.
// Pages stream through a bounded queue, so memory stays flat regardless of
// document length.
//
// Usage:
//
//	morphic -output out.pdf (-input-pdf scan.pdf | -input-image-folder pages/) [options]
//
// Input options (exactly one required):
//
//	-input-pdf string           Scanned PDF to process
//	-input-image-folder string  Folder of page images, natural sort order
//
// Processing options:
//
//	-source-dpi int         Capture DPI for pages without metadata (default 600)
//	-output-dpi int         DPI of embedded rasters (default: source DPI)
//	-format string          Embedded image format: jp2, jpx, png, jpeg (default jp2)
//	-compression-ratio int  JPEG 2000 compression ratio (default 20)
//	-queue-depth int        Pages buffered between reader and OCR, 1-10 (default 5)
//	-no-dehyphenate         Disable hyphenated word merging
//
// OCR options:
//
//	-engine string        OCR engine: tesseract or docai (default tesseract)
//	-lang string          OCR language (default eng)
//	-docai-config string  YAML config for the Document AI engine
//
// Dictionary options:
//
//	-dict-dir string   Directory holding <lang>.aff and <lang>.dic
//	-dict-lang string  Dictionary language (default en_US)
//
// Debug options:
//
//	-verbose               Log a progress line per page
//	-debug-overlay string  Also write a proof sheet PDF with visible text
//	-save-hocr string      Also write the recognized text as an hOCR file
//	-metrics-addr string   Serve Prometheus metrics on this address
//
// Example:
//
//	morphic -input-pdf scan.pdf -output out.pdf -source-dpi 600 -output-dpi 300 \
//	    -format jp2 -dict-dir /usr/share/hunspell
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gardar/morphic/pkg/dict"
	"github.com/gardar/morphic/pkg/imageenc"
	"github.com/gardar/morphic/pkg/ocr"
	"github.com/gardar/morphic/pkg/ocr/docai"
	"github.com/gardar/morphic/pkg/ocr/tesseract"
	"github.com/gardar/morphic/pkg/pagesource"
	"github.com/gardar/morphic/pkg/pipeline"
)

func main() {
	inputPDF := flag.String("input-pdf", "", "Scanned PDF to process")
	inputFolder := flag.String("input-image-folder", "", "Folder of page images")
	output := flag.String("output", "", "Output PDF path")
	sourceDPI := flag.Int("source-dpi", pipeline.DefaultSourceDPI, "Capture DPI for pages without metadata")
	outputDPI := flag.Int("output-dpi", 0, "DPI of embedded rasters (default: source DPI)")
	format := flag.String("format", "jp2", "Embedded image format: jp2, jpx, png, jpeg")
	ratio := flag.Int("compression-ratio", pipeline.DefaultCompressionRatio, "JPEG 2000 compression ratio")
	queueDepth := flag.Int("queue-depth", pipeline.DefaultQueueDepth, "Pages buffered between reader and OCR (1-10)")
	noDehyphenate := flag.Bool("no-dehyphenate", false, "Disable hyphenated word merging")
	engineName := flag.String("engine", "tesseract", "OCR engine: tesseract or docai")
	ocrLang := flag.String("lang", "eng", "OCR language")
	docaiConfig := flag.String("docai-config", "", "YAML config for the Document AI engine")
	dictDir := flag.String("dict-dir", "", "Directory holding <lang>.aff and <lang>.dic")
	dictLang := flag.String("dict-lang", "en_US", "Dictionary language")
	verbose := flag.Bool("verbose", false, "Log a progress line per page")
	debugOverlay := flag.String("debug-overlay", "", "Also write a proof sheet PDF with visible text")
	saveHOCR := flag.String("save-hocr", "", "Also write the recognized text as an hOCR file")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.Parse()

	// Credentials and endpoints may live in a local .env file.
	godotenv.Load()

	if *output == "" {
		fmt.Println("Error: Must provide -output path")
		os.Exit(1)
	}
	if (*inputPDF == "") == (*inputFolder == "") {
		fmt.Println("Error: Must provide exactly one of -input-pdf and -input-image-folder")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := selectEngine(*engineName, *ocrLang, *docaiConfig)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	oracle := openDictionary(*dictDir, *dictLang)

	source, err := openSource(ctx, *inputPDF, *inputFolder, *sourceDPI)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer source.Close()

	cfg := pipeline.Config{
		InputPDF:         *inputPDF,
		InputFolder:      *inputFolder,
		OutputPath:       *output,
		SourceDPI:        *sourceDPI,
		OutputDPI:        *outputDPI,
		Format:           imageenc.Format(*format),
		CompressionRatio: *ratio,
		QueueDepth:       *queueDepth,
		Dehyphenate:      !*noDehyphenate,
		Verbose:          *verbose,
		DebugOverlayPath: *debugOverlay,
		HOCRPath:         *saveHOCR,
	}

	opts := []pipeline.Option{}
	if *metricsAddr != "" {
		opts = append(opts, pipeline.WithMetrics(serveMetrics(*metricsAddr)))
	}

	p, err := pipeline.New(cfg, source, engine, oracle, opts...)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	stats, err := p.Run(ctx)
	if err != nil {
		fmt.Printf("Processing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s: %d pages, %d words, %d hyphen merges in %s\n",
		*output, stats.Pages, stats.WordsRecognized, stats.HyphenMerges,
		stats.Duration.Round(time.Millisecond))
}

// selectEngine builds the requested OCR engine. Document AI degrades to
// tesseract when its prerequisites are missing; tesseract has no fallback.
func selectEngine(name, lang, configPath string) (ocr.Engine, error) {
	tess := tesseract.New(lang)
	switch name {
	case "tesseract":
		return ocr.SelectEngine(tess, nil, os.Stderr)
	case "docai":
		if configPath == "" {
			return nil, fmt.Errorf("engine docai requires -docai-config")
		}
		cfg, err := docai.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		return ocr.SelectEngine(docai.New(cfg), tess, os.Stderr)
	}
	return nil, fmt.Errorf("unknown engine %q, want tesseract or docai", name)
}

// openDictionary loads the hunspell dictionary, degrading to none with a
// warning so a missing dictionary never blocks a run.
func openDictionary(dir, lang string) dict.Oracle {
	if dir == "" {
		return dict.Unavailable{}
	}
	oracle, err := dict.OpenLanguage(dir, lang)
	if err != nil {
		fmt.Printf("Warning: dictionary unavailable (%v), dehyphenation disabled\n", err)
		return dict.Unavailable{}
	}
	return oracle
}

func openSource(ctx context.Context, pdfPath, folder string, sourceDPI int) (pagesource.Source, error) {
	if pdfPath != "" {
		return pagesource.NewPDFSource(ctx, pdfPath, sourceDPI)
	}
	return pagesource.NewFolderSource(folder, sourceDPI)
}

// serveMetrics starts the Prometheus endpoint in the background and
// returns the pipeline metrics registered on it.
func serveMetrics(addr string) *pipeline.Metrics {
	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Printf("Warning: metrics server stopped: %v\n", err)
		}
	}()
	return metrics
}
