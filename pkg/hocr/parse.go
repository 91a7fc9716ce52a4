package hocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// Classes treated as text lines. Tesseract marks headers, captions and
// floating text with their own classes but they carry the same structure
// as ocr_line.
var lineClasses = map[string]bool{
	"ocr_line":      true,
	"ocr_header":    true,
	"ocr_caption":   true,
	"ocr_textfloat": true,
}

// ParseHOCR converts raw hOCR data into a structured HOCR object.
// Pages appear in document order, lines in reading order, words left to
// right as reported by the producing engine.
func ParseHOCR(data []byte) (HOCR, error) {
	var result HOCR
	result.Metadata = make(map[string]string)

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return result, fmt.Errorf("failed to parse hOCR HTML: %w", err)
	}

	extractDocumentMeta(&result, doc)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			result.Pages = append(result.Pages, parsePage(n, len(result.Pages)+1))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// decodeCharset converts non-UTF-8 hOCR payloads to UTF-8. Tesseract
// always emits UTF-8 but documents produced by other tools may declare
// a latin-1 charset in their meta tags.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	idx := strings.Index(content, "charset=")
	if idx < 0 {
		return data, nil
	}
	// A charset token is at most a handful of bytes; scanning further would
	// pick up unrelated markup from a truncated or empty declaration.
	rest := content[idx+len("charset="):]
	if len(rest) > 20 {
		rest = rest[:20]
	}
	rest = strings.TrimLeft(rest, `"'`)
	end := 0
	for end < len(rest) && isCharsetByte(rest[end]) {
		end++
	}
	enc := strings.ToLower(rest[:end])
	if enc == "" || enc == "utf-8" {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return decoded, nil
}

func isCharsetByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.':
		return true
	}
	return false
}

func parsePage(n *html.Node, ordinal int) Page {
	page := Page{
		ID:         attr(n, "id"),
		PageNumber: ordinal,
		Lang:       attr(n, "lang"),
		Metadata:   make(map[string]string),
	}

	title := attr(n, "title")
	props := ParseTitle(title)
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		page.BBox = *bbox
	}
	if image, ok := props["image"]; ok {
		page.ImageName = strings.Trim(image, `"`)
	}
	if ppageno, ok := props["ppageno"]; ok {
		if v, err := strconv.Atoi(ppageno); err == nil {
			page.PageNumber = v + 1 // ppageno is zero-based
		}
	}
	for k, v := range props {
		if k != "bbox" && k != "image" && k != "ppageno" {
			page.Metadata[k] = v
		}
	}

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode {
			for class := range lineClasses {
				if hasClass(c, class) {
					page.Lines = append(page.Lines, parseLine(c))
					return
				}
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}

	return page
}

func parseLine(n *html.Node) Line {
	title := attr(n, "title")
	line := Line{ID: attr(n, "id")}
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		line.BBox = *bbox
	}
	if baseline, ok := ParseTitle(title)["baseline"]; ok {
		line.Baseline = baseline
	}

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			if word := parseWord(c); word.Text != "" {
				line.Words = append(line.Words, word)
			}
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}

	return line
}

func parseWord(n *html.Node) Word {
	title := attr(n, "title")
	word := Word{
		ID:   attr(n, "id"),
		Text: strings.TrimSpace(textContent(n)),
	}
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	if wconf, ok := ParseTitle(title)["x_wconf"]; ok {
		if v, err := strconv.ParseFloat(wconf, 64); err == nil {
			// hOCR reports confidence on a 0-100 scale
			word.Confidence = v / 100.0
		}
	}
	return word
}

// ParseTitle splits an hOCR title attribute ("bbox 1 2 3 4; x_wconf 96")
// into its property map. The first token of each ';'-separated part is the
// key, the remainder the value.
func ParseTitle(title string) map[string]string {
	props := make(map[string]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = strings.Join(fields[1:], " ")
	}
	return props
}

// ParseBoundingBoxFromTitle extracts the bbox property from an hOCR title
// attribute. Returns nil when no well-formed bbox is present.
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	raw, ok := ParseTitle(title)["bbox"]
	if !ok {
		return nil
	}
	fields := strings.Fields(raw)
	if len(fields) != 4 {
		return nil
	}
	coords := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		coords[i] = v
	}
	bbox := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &bbox
}

func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				result.Title = strings.TrimSpace(textContent(n))
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					result.Language = lang
				}
			case "meta":
				name := attr(n, "name")
				if strings.HasPrefix(name, "ocr") {
					result.Metadata[name] = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
