package reader

// utf8BOM is the byte order mark commonly prepended by Windows programs
// (0xEF 0xBB 0xBF). Left in place it corrupts the first header cell.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// trimBOM strips a leading UTF-8 BOM if present.
func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == utf8BOM[0] && b[1] == utf8BOM[1] && b[2] == utf8BOM[2] {
		return b[3:]
	}
	return b
}
