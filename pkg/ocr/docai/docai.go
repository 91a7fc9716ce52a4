// Package docai provides an OCR engine backed by Google Document AI.
//
// Each page image is sent to a configured Document AI processor and the
// resulting Document proto is converted into the same page model the local
// Tesseract engine produces, so the rest of the pipeline does not care
// which backend recognized the text.
//
// Authentication uses the GOOGLE_APPLICATION_CREDENTIALS environment
// variable.
package docai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/morphic/pkg/hocr"
	"github.com/gardar/morphic/pkg/ocr"
)

// Engine implements ocr.Engine against a Document AI OCR processor.
type Engine struct {
	cfg *Config

	// DebugWriter, when set, receives the raw API response for each page
	// as protojson.
	DebugWriter interface{ Write(p []byte) (int, error) }
}

var _ ocr.Engine = (*Engine)(nil)

// New constructs a Document AI engine from a validated config.
func New(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Name() string { return "docai" }

// Available checks configuration and credentials without issuing an API
// call, so a misconfigured cloud backend is caught before any page work.
func (e *Engine) Available() error {
	if e.cfg == nil {
		return fmt.Errorf("docai engine not configured")
	}
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("docai config: %w", err)
	}
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is not set")
	}
	return nil
}

// Recognize sends the page image to the processor and converts the
// response to a page of lines and words at the image's pixel resolution.
func (e *Engine) Recognize(ctx context.Context, img image.Image, dpi int) (*hocr.Page, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image for OCR: %w", err)
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", e.cfg.Location)
	client, err := documentai.NewDocumentProcessorClient(
		ctx,
		option.WithEndpoint(endpoint),
		option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.cfg.ProjectID, e.cfg.Location, e.cfg.ProcessorID)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  buf.Bytes(),
				MimeType: "image/png",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}

	if e.DebugWriter != nil {
		if raw, err := protojson.Marshal(resp.Document); err == nil {
			e.DebugWriter.Write(raw)
			e.DebugWriter.Write([]byte("\n"))
		}
	}

	return pageFromProto(resp.Document, img.Bounds())
}

// pageFromProto converts the first page of a Document proto into the
// page model. Document AI reports geometry as vertices normalized to the
// page dimension; coordinates are denormalized back to pixels.
func pageFromProto(doc *documentaipb.Document, bounds image.Rectangle) (*hocr.Page, error) {
	page := &hocr.Page{
		BBox:     hocr.NewBoundingBox(0, 0, float64(bounds.Dx()), float64(bounds.Dy())),
		Metadata: map[string]string{"ocr-system": "documentai"},
	}
	if doc == nil || len(doc.Pages) == 0 {
		return page, nil
	}
	proto := doc.Pages[0]
	if len(proto.DetectedLanguages) > 0 {
		page.Lang = proto.DetectedLanguages[0].LanguageCode
	}

	for i, line := range proto.Lines {
		l := hocr.Line{ID: fmt.Sprintf("line_%d", i+1)}
		if bbox := denormalize(line.Layout, proto.Dimension); bbox != nil {
			l.BBox = *bbox
		}
		for j, token := range tokensInLine(line, proto.Tokens) {
			text := strings.TrimSpace(textFromLayout(token.Layout, doc.Text))
			if text == "" {
				continue
			}
			w := hocr.Word{
				ID:   fmt.Sprintf("word_%d_%d", i+1, j+1),
				Text: text,
			}
			if bbox := denormalize(token.Layout, proto.Dimension); bbox != nil {
				w.BBox = *bbox
			}
			if token.Layout != nil {
				w.Confidence = float64(token.Layout.Confidence)
			}
			l.Words = append(l.Words, w)
		}
		if len(l.Words) > 0 {
			page.Lines = append(page.Lines, l)
		}
	}
	return page, nil
}

// tokensInLine selects the tokens whose text segments fall inside the
// line's text segment. Document AI anchors every element into the shared
// document text, so containment is an index range check.
func tokensInLine(line *documentaipb.Document_Page_Line, tokens []*documentaipb.Document_Page_Token) []*documentaipb.Document_Page_Token {
	start, end, ok := segmentRange(line.Layout)
	if !ok {
		return nil
	}
	var out []*documentaipb.Document_Page_Token
	for _, token := range tokens {
		ts, te, ok := segmentRange(token.Layout)
		if !ok {
			continue
		}
		if ts >= start && te <= end {
			out = append(out, token)
		}
	}
	return out
}

func segmentRange(layout *documentaipb.Document_Page_Layout) (int64, int64, bool) {
	if layout == nil || layout.TextAnchor == nil || len(layout.TextAnchor.TextSegments) == 0 {
		return 0, 0, false
	}
	seg := layout.TextAnchor.TextSegments[0]
	return int64(seg.StartIndex), int64(seg.EndIndex), true
}

func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	var result strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

func denormalize(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) *hocr.BoundingBox {
	if layout == nil || layout.BoundingPoly == nil || dim == nil || len(layout.BoundingPoly.NormalizedVertices) < 4 {
		return nil
	}
	v := layout.BoundingPoly.NormalizedVertices
	bbox := hocr.NewBoundingBox(
		float64(v[0].X)*float64(dim.Width),
		float64(v[0].Y)*float64(dim.Height),
		float64(v[2].X)*float64(dim.Width),
		float64(v[2].Y)*float64(dim.Height),
	)
	return &bbox
}
