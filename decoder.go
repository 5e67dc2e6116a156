package quotedprintable

import (
	"bufio"
	"errors"
	"io"
)

const defaultReadBufSize = 4 * 1024

// Decoder reads quoted-printable encoded data from an underlying reader and
// returns the decoded bytes. A Decoder is not safe for concurrent use.
type Decoder struct {
	r       io.ByteReader
	br      *bufio.Reader
	bufSize int
	sep     []byte

	// window holds n not yet consumed input bytes; eof is set once the
	// source is exhausted, so slots at n and above mean end of input.
	window [3]byte
	n      int
	eof    bool
	err    error // sticky source error, reported once the window drains

	pending []byte
	stats   Stats
}

type DecoderOption func(d *Decoder)

// NewDecoder returns a [Decoder] reading from r. Readers that do not
// implement [io.ByteReader] are buffered.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		bufSize: defaultReadBufSize,
		sep:     []byte{'\n'},
	}

	for _, opt := range opts {
		opt(d)
	}

	d.Reset(r)

	return d
}

// WithLineSeparator sets the bytes a hard line break ("\r\n") decodes to.
// The default is "\n".
func WithLineSeparator(sep []byte) DecoderOption {
	return func(d *Decoder) {
		d.sep = append([]byte(nil), sep...)
	}
}

// WithBufferSize sets the size of the buffer placed in front of sources
// that are not an [io.ByteReader].
func WithBufferSize(size int) DecoderOption {
	return func(d *Decoder) {
		if size > 0 {
			d.bufSize = size
		}
	}
}

// Reset discards the [Decoder] d's state and makes it read from r instead,
// keeping the configured options.
func (d *Decoder) Reset(r io.Reader) {
	d.n = 0
	d.eof = false
	d.err = nil
	d.pending = nil
	d.stats = Stats{}

	switch src := r.(type) {
	case nil:
		d.r = nil
	case io.ByteReader:
		d.r = src
	default:
		if d.br == nil {
			d.br = bufio.NewReaderSize(r, d.bufSize)
		} else {
			d.br.Reset(r)
		}
		d.r = d.br
	}
}

// Stats returns the counters accumulated since the last Reset.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// ReadByte returns the next decoded byte. At the end of the input it
// returns [io.EOF]. A malformed escape yields an [*InvalidOctetError]; the
// escape is consumed and decoding may continue with the next call.
func (d *Decoder) ReadByte() (byte, error) {
	if d.r == nil {
		return 0, errReaderNil
	}

	for {
		if len(d.pending) > 0 {
			c := d.pending[0]
			d.pending = d.pending[1:]
			d.stats.BytesProduced++
			return c, nil
		}

		d.fill()
		if d.err != nil && d.incomplete() {
			return 0, d.err
		}

		w := &d.window
		switch {
		case d.n == 0:
			return 0, io.EOF

		case w[0] == '=':
			if d.n == 3 && w[1] == '\r' && w[2] == '\n' {
				d.consume(3)
				d.stats.SoftBreaks++
				continue
			}
			if d.n < 3 {
				err := &InvalidOctetError{Truncated: true}
				copy(err.Octet[:], w[1:d.n])
				d.consume(d.n)
				return 0, err
			}
			c, err := DecodeOctet(w[1], w[2])
			d.consume(3)
			if err != nil {
				return 0, err
			}
			d.stats.BytesProduced++
			return c, nil

		case d.n >= 2 && w[0] == '\r' && w[1] == '\n':
			d.consume(2)
			d.stats.HardBreaks++
			if len(d.sep) == 0 {
				continue
			}
			d.pending = d.sep[1:]
			d.stats.BytesProduced++
			return d.sep[0], nil

		default:
			c := w[0]
			d.consume(1)
			d.stats.BytesProduced++
			return c, nil
		}
	}
}

// Read decodes into p until p is full or the input ends. [io.EOF] is only
// returned when no bytes were produced.
func (d *Decoder) Read(p []byte) (n int, err error) {
	for n < len(p) {
		c, err := d.ReadByte()
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		p[n] = c
		n++
	}
	return n, nil
}

// WriteTo writes the remaining decoded data to w.
func (d *Decoder) WriteTo(w io.Writer) (n int64, err error) {
	buf := make([]byte, defaultReadBufSize)
	for {
		nr, rerr := d.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			n += int64(nw)
			if werr != nil {
				return n, werr
			}
			if nw != nr {
				return n, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return n, nil
			}
			return n, rerr
		}
	}
}

// fill tops up the lookahead window from the source.
func (d *Decoder) fill() {
	for d.n < len(d.window) && !d.eof && d.err == nil {
		c, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.eof = true
			} else {
				d.err = err
			}
			return
		}
		d.window[d.n] = c
		d.n++
		d.stats.BytesConsumed++
	}
}

// incomplete reports whether the window head could still grow into a soft
// break, an escape or a hard break.
func (d *Decoder) incomplete() bool {
	switch {
	case d.n == 0:
		return true
	case d.window[0] == '=':
		return d.n < 3
	case d.window[0] == '\r':
		return d.n < 2
	}
	return false
}

func (d *Decoder) consume(k int) {
	copy(d.window[:], d.window[k:d.n])
	d.n -= k
}
