package artifact

import "github.com/rotisserie/eris"

// Encoding selects how a figure is written to disk. The value doubles as the
// file extension.
type Encoding string

const (
	// EncodingJSON is the self-describing document; it can be loaded back.
	EncodingJSON Encoding = "json"
	// EncodingHTML is a standalone interactive page; it is write-only.
	EncodingHTML Encoding = "html"
)

// ParseEncoding maps a file-type token to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON, EncodingHTML:
		return Encoding(s), nil
	default:
		return "", eris.Errorf("artifact: unknown encoding %q (want json or html)", s)
	}
}

// Reloadable reports whether a figure written in this encoding can be read back.
func (e Encoding) Reloadable() bool {
	return e == EncodingJSON
}
