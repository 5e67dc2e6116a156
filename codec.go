package quotedprintable

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Codec converts whole buffers to and from quoted-printable text.
//
// The encoded text is pure ASCII; the charset only matters for how it is
// mapped between Go strings and bytes.
type Codec struct {
	charset encoding.Encoding
	sep     []byte
}

type CodecOption func(c *Codec)

// WithCharset sets the text encoding of the quoted-printable strings.
// The default is UTF-8.
func WithCharset(enc encoding.Encoding) CodecOption {
	return func(c *Codec) {
		if enc != nil {
			c.charset = enc
		}
	}
}

// WithDecodedLineSeparator sets what hard line breaks decode to.
func WithDecodedLineSeparator(sep []byte) CodecOption {
	return func(c *Codec) {
		c.sep = append([]byte(nil), sep...)
	}
}

func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		charset: unicode.UTF8,
		sep:     []byte{'\n'},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CharsetByName looks up an IANA registered charset such as "UTF-8" or
// "ISO-8859-1".
func CharsetByName(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("quotedprintable: charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("quotedprintable: charset %q is not supported", name)
	}
	return enc, nil
}

// Encode returns the quoted-printable form of src.
func (c *Codec) Encode(src []byte) (string, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(src) + len(src)/2)

	enc := NewEncoder(buf)
	if _, err := enc.Write(src); err != nil {
		return "", &StreamError{Op: "encode", Err: err}
	}
	if err := enc.Close(); err != nil {
		return "", &StreamError{Op: "encode", Err: err}
	}

	text, err := c.charset.NewDecoder().Bytes(buf.Bytes())
	if err != nil {
		return "", &StreamError{Op: "encode", Err: err}
	}

	return string(text), nil
}

// Decode returns the bytes represented by the quoted-printable text s.
func (c *Codec) Decode(s string) ([]byte, error) {
	raw, err := c.charset.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &StreamError{Op: "decode", Err: err}
	}

	out := new(bytes.Buffer)
	out.Grow(len(raw))

	dec := NewDecoder(bytes.NewReader(raw), WithLineSeparator(c.sep))
	if _, err := io.Copy(out, dec); err != nil {
		return nil, &StreamError{Op: "decode", Err: err}
	}

	return out.Bytes(), nil
}

var defaultCodec = NewCodec()

// EncodeToString encodes src with the default UTF-8 [Codec].
func EncodeToString(src []byte) (string, error) {
	return defaultCodec.Encode(src)
}

// DecodeString decodes s with the default UTF-8 [Codec]. Hard line breaks
// decode to "\n".
func DecodeString(s string) ([]byte, error) {
	return defaultCodec.Decode(s)
}
