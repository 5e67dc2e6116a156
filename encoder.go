package quotedprintable

import (
	"bufio"
	"errors"
	"io"
)

var (
	softBreak = []byte("=\r\n")
	hardBreak = []byte("\r\n")
)

// Encoder writes the quoted-printable form of the bytes written to it to an
// underlying writer. An Encoder is not safe for concurrent use.
type Encoder struct {
	w  io.Writer
	bw *bufio.Writer

	column int
	last   byte
	closed bool
	stats  Stats
}

// NewEncoder returns a new [Encoder].
// Writes to the returned writer are encoded and written to w.
//
// It is the caller's responsibility to call Close on the [Encoder] when done.
// No line break is added at the end of the output.
func NewEncoder(w io.Writer) *Encoder {
	e := new(Encoder)
	e.Reset(w)
	return e
}

// Reset discards the [Encoder] e's state and makes it equivalent to the
// result of its original state from [NewEncoder], but writing to w instead.
// Unflushed output is dropped.
func (e *Encoder) Reset(w io.Writer) {
	e.w = w
	e.column = 0
	e.last = '\n'
	e.closed = false
	e.stats = Stats{}

	if w == nil {
		return
	}
	if e.bw == nil {
		e.bw = bufio.NewWriter(w)
	} else {
		e.bw.Reset(w)
	}
}

var errWriterNil = errors.New("quotedprintable: writer is nil")

// Stats returns the counters accumulated since the last Reset.
func (e *Encoder) Stats() Stats {
	return e.stats
}

// WriteByte encodes c. Bytes are only counted as consumed once their
// encoded form was accepted by the buffer.
func (e *Encoder) WriteByte(c byte) error {
	if e.closed {
		return ErrClosed
	}
	if e.w == nil {
		return errWriterNil
	}

	if err := e.encodeByte(c); err != nil {
		return err
	}
	e.stats.BytesConsumed++

	return nil
}

func (e *Encoder) encodeByte(c byte) error {
	switch {
	case c == '\r':
		// Line breaks are generated from '\n' alone.
		return nil

	case c == '\n':
		// Whitespace at the end of a line is stripped by some transports.
		if e.last == ' ' || e.last == '\t' {
			if err := e.lineBreak(softBreak); err != nil {
				return err
			}
			e.stats.SoftBreaks++
		}
		if err := e.lineBreak(hardBreak); err != nil {
			return err
		}
		e.stats.HardBreaks++
		return nil

	case literalLUT[c]:
		if err := e.reserve(1); err != nil {
			return err
		}
		if err := e.bw.WriteByte(c); err != nil {
			return err
		}
		e.column++
		e.last = c
		e.stats.BytesProduced++
		return nil

	default:
		if err := e.reserve(3); err != nil {
			return err
		}
		o := &octetLUT[c]
		if _, err := e.bw.Write(o[:]); err != nil {
			return err
		}
		e.column += 3
		e.last = o[2]
		e.stats.BytesProduced += 3
		return nil
	}
}

// reserve starts a new line unless n more bytes and a trailing '=' still fit.
func (e *Encoder) reserve(n int) error {
	if e.column < MaxLineLength-n {
		return nil
	}
	if err := e.lineBreak(softBreak); err != nil {
		return err
	}
	e.stats.SoftBreaks++
	return nil
}

func (e *Encoder) lineBreak(b []byte) error {
	if _, err := e.bw.Write(b); err != nil {
		return err
	}
	e.column = 0
	e.last = '\n'
	e.stats.BytesProduced += int64(len(b))
	return nil
}

// Write encodes p. The encoded bytes are not necessarily written to the
// underlying [io.Writer] until Flush or Close is called.
func (e *Encoder) Write(p []byte) (n int, err error) {
	for i, c := range p {
		if err := e.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// ReadFrom encodes everything read from r until EOF.
func (e *Encoder) ReadFrom(r io.Reader) (n int64, err error) {
	buf := make([]byte, defaultReadBufSize)
	for {
		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := e.Write(buf[:nr])
			n += int64(nw)
			if werr != nil {
				return n, werr
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

// Flush writes any buffered output to the underlying [io.Writer].
func (e *Encoder) Flush() error {
	if e.closed {
		return ErrClosed
	}
	if e.w == nil {
		return errWriterNil
	}
	return e.bw.Flush()
}

// Close flushes any pending output and closes the underlying writer if it
// is an [io.Closer].
// It is an error to call Write after calling Close.
func (e *Encoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	if e.w == nil {
		return errWriterNil
	}
	e.closed = true

	err := e.bw.Flush()
	if c, ok := e.w.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}

	return err
}
