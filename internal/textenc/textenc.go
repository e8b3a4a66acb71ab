// Package textenc normalises the encoding of source documents before they are scanned.
package textenc

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewReader returns a reader yielding UTF-8 text.
//
// A UTF-8 byte order mark is stripped, and input starting with a UTF-16 byte
// order mark (either endianness) is decoded. Anything else is passed through as UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
