package hocr

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
)

const hocrTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml"{{if .Language}} lang="{{.Language}}"{{end}}>
 <head>
  <title>{{escape .Title}}</title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
{{- range $k, $v := .Metadata}}
  <meta name="{{$k}}" content="{{escape $v}}"/>
{{- end}}
 </head>
 <body>
{{- range .Pages}}
  <div class="ocr_page" id="{{.ID}}" title="{{pagetitle .}}">
{{- range .Lines}}
   <span class="ocr_line" id="{{.ID}}" title="bbox {{coords .BBox}}{{if .Baseline}}; baseline {{.Baseline}}{{end}}">
{{- range .Words}}
    <span class="ocrx_word" id="{{.ID}}" title="bbox {{coords .BBox}}; x_wconf {{wconf .Confidence}}">{{escape .Text}}</span>
{{- end}}
   </span>
{{- end}}
  </div>
{{- end}}
 </body>
</html>
`

// GenerateHOCRDocument renders an hOCR HTML document from the HOCR struct.
// The output parses back through ParseHOCR into the same model.
func GenerateHOCRDocument(doc *HOCR) (string, error) {
	tmpl, err := template.New("hocr").Funcs(template.FuncMap{
		"escape": html.EscapeString,
		"coords": func(b BoundingBox) string {
			return fmt.Sprintf("%.0f %.0f %.0f %.0f", b.X1, b.Y1, b.X2, b.Y2)
		},
		"wconf": func(c float64) string {
			return fmt.Sprintf("%.0f", c*100)
		},
		"pagetitle": func(p Page) string {
			parts := []string{}
			if p.ImageName != "" {
				parts = append(parts, fmt.Sprintf("image %q", p.ImageName))
			}
			parts = append(parts,
				fmt.Sprintf("bbox %.0f %.0f %.0f %.0f", p.BBox.X1, p.BBox.Y1, p.BBox.X2, p.BBox.Y2),
				fmt.Sprintf("ppageno %d", p.PageNumber-1),
			)
			return strings.Join(parts, "; ")
		},
	}).Parse(hocrTemplate)
	if err != nil {
		return "", fmt.Errorf("error parsing hOCR template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("error rendering hOCR template: %w", err)
	}
	return buf.String(), nil
}
