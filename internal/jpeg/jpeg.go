// Package jpeg provides the bare marker-level helpers the rest of
// streameye needs. It never decodes image content: only the two-byte
// start-of-image and end-of-image markers matter here.
package jpeg

// SOI and EOI are the JPEG start-of-image and end-of-image marker bytes.
var (
	SOI = [2]byte{0xFF, 0xD8}
	EOI = [2]byte{0xFF, 0xD9}
)

// AutoSeparator is the four-byte pattern used to split a concatenated
// stream of JPEGs when no explicit separator is configured: an EOI
// immediately followed by the next frame's SOI.
var AutoSeparator = []byte{0xFF, 0xD9, 0xFF, 0xD8}

// IsValid reports whether data looks like a complete JPEG frame: it starts
// with SOI and ends with EOI. This is a boundary check, not a decode — it
// never inspects anything between the markers.
func IsValid(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if data[0] != SOI[0] || data[1] != SOI[1] {
		return false
	}
	if data[len(data)-2] != EOI[0] || data[len(data)-1] != EOI[1] {
		return false
	}
	return true
}
