package hocr

import (
	"strings"
)

// ExtractHOCRText extracts all text from an hOCR document. Words are
// separated by spaces, lines by newlines, pages by double newlines.
func ExtractHOCRText(doc *HOCR) string {
	var builder strings.Builder
	for _, page := range doc.Pages {
		builder.WriteString(ExtractPageText(&page))
		builder.WriteString("\n\n")
	}
	return builder.String()
}

// ExtractPageText flattens one page into plain text in reading order.
func ExtractPageText(page *Page) string {
	var builder strings.Builder
	for i, line := range page.Lines {
		if i > 0 {
			builder.WriteString("\n")
		}
		for j, word := range line.Words {
			if j > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(word.Text)
		}
	}
	return builder.String()
}

// WordCount reports the number of recognized words on a page.
func WordCount(page *Page) int {
	n := 0
	for _, line := range page.Lines {
		n += len(line.Words)
	}
	return n
}
