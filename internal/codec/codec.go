// Package codec converts page bytes between the export's character encoding
// and the UTF-8 text the HTML parser works on.
package codec

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec decodes and re-encodes page bytes for one encoding.
type Codec struct {
	name string
	enc  encoding.Encoding
	utf8 bool
}

// New looks up an encoding by its WHATWG label ("utf-8", "windows-1252",
// "iso-8859-1", "shift_jis", ...).
func New(label string) (*Codec, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return &Codec{name: name, enc: enc, utf8: enc == unicode.UTF8}, nil
}

// Name returns the canonical encoding name.
func (c *Codec) Name() string {
	return c.name
}

// Text is decoded page content.
type Text struct {
	Data []byte // UTF-8
	BOM  bool   // the source started with a UTF-8 byte order mark
}

// Decode converts raw page bytes to UTF-8. For UTF-8 pages invalid byte
// sequences are an error rather than being replaced.
func (c *Codec) Decode(raw []byte) (Text, error) {
	if c.utf8 {
		bom := bytes.HasPrefix(raw, utf8BOM)
		data := bytes.TrimPrefix(raw, utf8BOM)
		if _, _, err := transform.Bytes(encoding.UTF8Validator, data); err != nil {
			return Text{}, fmt.Errorf("decode %s: %w", c.name, err)
		}
		return Text{Data: data, BOM: bom}, nil
	}
	data, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
	if err != nil {
		return Text{}, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return Text{Data: data}, nil
}

// Encode converts UTF-8 text back to the page encoding. Characters the
// encoding cannot represent are written as HTML numeric references.
func (c *Codec) Encode(t Text) ([]byte, error) {
	if c.utf8 {
		if !t.BOM {
			return t.Data, nil
		}
		out := make([]byte, 0, len(utf8BOM)+len(t.Data))
		out = append(out, utf8BOM...)
		return append(out, t.Data...), nil
	}
	out, _, err := transform.Bytes(encoding.HTMLEscapeUnsupported(c.enc.NewEncoder()), t.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}
