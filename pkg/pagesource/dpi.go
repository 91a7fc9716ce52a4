package pagesource

import (
	"bytes"
	"encoding/binary"
	"math"
)

const metersPerInch = 0.0254

// sniffDPI reads the capture resolution from raw image bytes. It
// understands the PNG pHYs chunk and the JPEG JFIF density fields and
// returns 0 when the file carries no usable resolution.
func sniffDPI(data []byte) int {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return pngDPI(data)
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return jpegDPI(data)
	}
	return 0
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// pngDPI walks the chunk list looking for pHYs. The chunk stores pixels
// per unit with unit 1 meaning meters; unit 0 gives only an aspect ratio,
// which is useless here.
func pngDPI(data []byte) int {
	off := len(pngSignature)
	for off+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])
		body := off + 8
		if body+length > len(data) {
			return 0
		}
		switch typ {
		case "pHYs":
			if length < 9 || data[body+8] != 1 {
				return 0
			}
			ppm := binary.BigEndian.Uint32(data[body : body+4])
			return int(math.Round(float64(ppm) * metersPerInch))
		case "IDAT", "IEND":
			return 0
		}
		off = body + length + 4 // skip CRC
	}
	return 0
}

// jpegDPI scans marker segments for APP0/JFIF. Density units: 1 is dots
// per inch, 2 is dots per centimeter.
func jpegDPI(data []byte) int {
	off := 2
	for off+4 <= len(data) {
		if data[off] != 0xFF {
			return 0
		}
		marker := data[off+1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			off += 2
			continue
		}
		if marker == 0xDA { // start of scan, no metadata past this point
			return 0
		}
		length := int(binary.BigEndian.Uint16(data[off+2 : off+4]))
		seg := data[off+4 : min(off+2+length, len(data))]
		if marker == 0xE0 && len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
			unit := seg[7]
			xDensity := binary.BigEndian.Uint16(seg[8:10])
			switch unit {
			case 1:
				return int(xDensity)
			case 2:
				return int(math.Round(float64(xDensity) * 2.54))
			}
			return 0
		}
		off += 2 + length
	}
	return 0
}
