// Package dehyphen repairs words that typesetting split across line ends
// with a hyphen, so text search in the final PDF matches the whole word.
//
// OCR reports such words as two fragments: "retriev-" at the end of one
// line and "ing" at the start of the next. A merge happens only when a
// dictionary validates the fused word, which keeps legitimate compounds
// like "well-known" intact ("wellknown" is not a word). Merges across PDF
// page boundaries are supported through a one-page lookahead driven by the
// pipeline.
package dehyphen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gardar/morphic/pkg/dict"
	"github.com/gardar/morphic/pkg/hocr"
)

// Dehyphenator merges line-final hyphenated fragments validated by the
// dictionary oracle. With an unavailable oracle every candidate is left
// untouched, which makes the pass a no-op rather than an error.
type Dehyphenator struct {
	oracle dict.Oracle
}

// New constructs a Dehyphenator. oracle may be dict.Unavailable{}.
func New(oracle dict.Oracle) *Dehyphenator {
	if oracle == nil {
		oracle = dict.Unavailable{}
	}
	return &Dehyphenator{oracle: oracle}
}

// ProcessPage merges hyphenated fragments between consecutive lines of a
// single page and returns the number of merges applied. A fragment on the
// page's last line is left for ResolveBoundary, since its continuation
// lives on the next page.
//
// Re-running the pass is a no-op: a merged word no longer ends with a
// hyphen, so it never becomes a candidate again.
func (d *Dehyphenator) ProcessPage(page *hocr.Page) int {
	if page == nil || len(page.Lines) < 2 {
		return 0
	}
	merged := 0
	for i := 0; i < len(page.Lines)-1; i++ {
		cur := &page.Lines[i]
		next := &page.Lines[i+1]
		if d.mergeAcross(cur, next, true) {
			merged++
			if len(next.Words) == 0 {
				page.Lines = append(page.Lines[:i+1], page.Lines[i+2:]...)
				i-- // revisit: the new neighbor may continue another fragment
			}
		}
	}
	return merged
}

// ResolveBoundary merges a hyphenated fragment at the end of prev's last
// line with the first word of next's first line. The merged word keeps the
// fragment's own bounding box, since a union across two pages has no
// meaning; the absorbed word is removed from next. Reports whether a merge
// happened.
//
// Callers must not invoke this for the final page of the input: a trailing
// hyphen with no further context stays as-is.
func (d *Dehyphenator) ResolveBoundary(prev, next *hocr.Page) bool {
	if prev == nil || next == nil || len(prev.Lines) == 0 || len(next.Lines) == 0 {
		return false
	}
	last := &prev.Lines[len(prev.Lines)-1]
	first := &next.Lines[0]
	if !d.mergeAcross(last, first, false) {
		return false
	}
	if len(first.Words) == 0 {
		next.Lines = next.Lines[1:]
	}
	return true
}

// mergeAcross evaluates the single candidate between two consecutive
// lines: the last word of cur and the first word of next. Only the last
// hyphen of a line is ever considered; interior hyphens are untouched.
// unionBBox controls whether the merged word's geometry covers both
// fragments (same page) or keeps the first fragment's box (page boundary).
func (d *Dehyphenator) mergeAcross(cur, next *hocr.Line, unionBBox bool) bool {
	if len(cur.Words) == 0 || len(next.Words) == 0 {
		return false
	}
	lastWord := &cur.Words[len(cur.Words)-1]
	firstWord := next.Words[0]

	decision := d.Evaluate(lastWord.Text, firstWord.Text)
	if !decision.Merged {
		return false
	}

	lastWord.Text = decision.ResultingText
	if unionBBox {
		lastWord.BBox = lastWord.BBox.Union(firstWord.BBox)
	}
	if firstWord.Confidence < lastWord.Confidence {
		lastWord.Confidence = firstWord.Confidence
	}
	next.Words = next.Words[1:]
	return true
}

// Decision is the outcome of evaluating one page- or line-boundary
// candidate.
type Decision struct {
	Merged        bool
	ResultingText string
}

// Evaluate decides whether a line-final fragment and the following line's
// first word should fuse. The rules, in order:
//
//  1. the fragment must end with a literal hyphen,
//  2. the continuation must start with a lowercase letter,
//  3. a dictionary must be available,
//  4. the fused word must be valid,
//  5. the hyphenated spelling itself must not be a valid compound
//     (protects words like "co-operate").
//
// Rule 5 is deliberately stricter than validating the fused word alone:
// when both "cooperate" and "co-operate" are in the dictionary the hyphen
// is treated as intentional and the merge is declined.
func (d *Dehyphenator) Evaluate(fragment, continuation string) Decision {
	none := Decision{Merged: false}

	if len(fragment) < 2 || !strings.HasSuffix(fragment, "-") {
		return none
	}
	r, _ := utf8.DecodeRuneInString(continuation)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return none
	}
	if !dict.IsAvailable(d.oracle) {
		return none
	}

	base := strings.TrimSuffix(fragment, "-")
	fused := base + continuation
	if !d.oracle.IsValidWord(fused) {
		return none
	}
	if d.oracle.IsValidWord(base + "-" + continuation) {
		// Legitimate hyphenated compound; keep both fragments.
		return none
	}
	return Decision{Merged: true, ResultingText: fused}
}
