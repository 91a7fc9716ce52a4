package hocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
 <head>
  <title>Sample OCR</title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name="ocr-system" content="tesseract 5.3.0"/>
 </head>
 <body>
  <div class="ocr_page" id="page_1" title='image "page-1.png"; bbox 0 0 4960 7016; ppageno 0'>
   <div class="ocr_carea" id="block_1_1" title="bbox 232 133 2250 300">
    <p class="ocr_par" id="par_1_1" title="bbox 232 133 2250 300">
     <span class="ocr_line" id="line_1_1" title="bbox 232 133 2250 190; baseline 0.002 -10">
      <span class="ocrx_word" id="word_1_1" title="bbox 232 133 450 190; x_wconf 96">The</span>
      <span class="ocrx_word" id="word_1_2" title="bbox 470 133 890 190; x_wconf 91">patient</span>
      <span class="ocrx_word" id="word_1_3" title="bbox 910 133 1400 190; x_wconf 88">retriev-</span>
     </span>
     <span class="ocr_line" id="line_1_2" title="bbox 232 210 2250 270">
      <span class="ocrx_word" id="word_1_4" title="bbox 232 210 510 270; x_wconf 93">ing</span>
      <span class="ocrx_word" id="word_1_5" title="bbox 530 210 1020 270; x_wconf 95">memories</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestParseHOCR(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)

	assert.Equal(t, "Sample OCR", doc.Title)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "tesseract 5.3.0", doc.Metadata["ocr-system"])

	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, "page-1.png", page.ImageName)
	assert.Equal(t, NewBoundingBox(0, 0, 4960, 7016), page.BBox)

	require.Len(t, page.Lines, 2)
	first := page.Lines[0]
	require.Len(t, first.Words, 3)
	assert.Equal(t, "The", first.Words[0].Text)
	assert.Equal(t, "retriev-", first.Words[2].Text)
	assert.Equal(t, NewBoundingBox(232, 133, 450, 190), first.Words[0].BBox)
	assert.InDelta(t, 0.96, first.Words[0].Confidence, 1e-9)
	assert.Equal(t, "0.002 -10", first.Baseline)

	second := page.Lines[1]
	require.Len(t, second.Words, 2)
	assert.Equal(t, "ing", second.Words[0].Text)
}

func TestParseHOCREmptyPage(t *testing.T) {
	empty := `<html><body><div class="ocr_page" id="page_1" title="bbox 0 0 100 100"></div></body></html>`
	doc, err := ParseHOCR([]byte(empty))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Empty(t, doc.Pages[0].Lines)
}

func TestParseHOCRMalformedCharset(t *testing.T) {
	// A document truncated right at the charset declaration must parse,
	// not crash on the missing token.
	_, err := ParseHOCR([]byte(`<html><head><meta content="text/html;charset=`))
	require.NoError(t, err)

	// An empty declaration followed by markup must not pick up stray text
	// as an encoding name and reroute UTF-8 bytes through latin-1.
	doc, err := ParseHOCR([]byte(`<html><head><meta content="text/html;charset=" /></head><body>` +
		`<div class="ocr_page" id="page_1" title="bbox 0 0 100 100">` +
		`<span class="ocr_line" title="bbox 0 0 50 20">` +
		`<span class="ocrx_word" title="bbox 0 0 50 20; x_wconf 90">née</span>` +
		`</span></div></body></html>`))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Lines, 1)
	assert.Equal(t, "née", doc.Pages[0].Lines[0].Words[0].Text)
}

func TestParseHOCRLatin1(t *testing.T) {
	// 0xE9 is é in ISO-8859-1 and invalid on its own in UTF-8.
	raw := []byte(`<html><head><meta content="text/html;charset=iso-8859-1" /></head><body>` +
		`<div class="ocr_page" id="page_1" title="bbox 0 0 100 100">` +
		`<span class="ocr_line" title="bbox 0 0 50 20">` +
		`<span class="ocrx_word" title="bbox 0 0 50 20; x_wconf 90">caf` + "\xe9" + `</span>` +
		`</span></div></body></html>`)
	doc, err := ParseHOCR(raw)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "café", doc.Pages[0].Lines[0].Words[0].Text)
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle("bbox 1 2 3 4; x_wconf 96; baseline 0.01 -4")
	assert.Equal(t, "1 2 3 4", props["bbox"])
	assert.Equal(t, "96", props["x_wconf"])
	assert.Equal(t, "0.01 -4", props["baseline"])

	assert.Nil(t, ParseBoundingBoxFromTitle("x_wconf 96"))
	assert.Nil(t, ParseBoundingBoxFromTitle("bbox 1 2 three 4"))
}

func TestGenerateRoundTrip(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)

	rendered, err := GenerateHOCRDocument(&doc)
	require.NoError(t, err)

	again, err := ParseHOCR([]byte(rendered))
	require.NoError(t, err)

	require.Len(t, again.Pages, 1)
	assert.Equal(t, ExtractHOCRText(&doc), ExtractHOCRText(&again))
	assert.Equal(t, doc.Pages[0].Lines[0].Words[0].BBox, again.Pages[0].Lines[0].Words[0].BBox)
}

func TestExtractPageText(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)

	text := ExtractPageText(&doc.Pages[0])
	assert.Equal(t, "The patient retriev-\ning memories", text)
	assert.Equal(t, 5, WordCount(&doc.Pages[0]))
}
