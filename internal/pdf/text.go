package pdf

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xFE, 0xFF}

// TextString encodes s as a PDF text string: plain bytes when s is
// printable ASCII, UTF-16BE with a byte order mark otherwise.
func TextString(s string) String {
	if isPlainASCII(s) {
		return NewString(s)
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return NewString(s)
	}
	return String{Value: b}
}

// DecodeText is the inverse of TextString.
func DecodeText(s String) string {
	if !bytes.HasPrefix(s.Value, utf16BOM) {
		return string(s.Value)
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	b, err := dec.Bytes(s.Value)
	if err != nil {
		return string(s.Value)
	}
	return string(b)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
