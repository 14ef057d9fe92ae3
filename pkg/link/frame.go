// Package link carries command and event lines over a byte stream.
package link

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// MaxFrame is the longest accepted command line, excluding the terminator.
const MaxFrame = 256

// Frame is one inbound line. Overflow is set, and Line empty, when the line
// was longer than the reader's limit and has been discarded.
type Frame struct {
	Line     []byte
	Overflow bool
}

// Reader splits a byte stream into newline terminated frames.
type Reader struct {
	br  *bufio.Reader
	max int
}

// NewReader creates a reader accepting lines of up to max bytes.
func NewReader(r io.Reader, max int) *Reader {
	return &Reader{
		br:  bufio.NewReaderSize(r, max+2),
		max: max,
	}
}

// Next returns the next frame. A trailing CR is stripped. A final line
// without terminator is returned before io.EOF.
func (r *Reader) Next() (Frame, error) {
	data, err := r.br.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		if err := r.discardLine(); err != nil && !errors.Is(err, io.EOF) {
			return Frame{}, err
		}
		return Frame{Overflow: true}, nil
	}
	if err != nil && (!errors.Is(err, io.EOF) || len(data) == 0) {
		return Frame{}, err
	}

	line := bytes.TrimSuffix(data, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > r.max {
		return Frame{Overflow: true}, nil
	}
	return Frame{Line: bytes.Clone(line)}, nil
}

func (r *Reader) discardLine() error {
	for {
		_, err := r.br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// Pump reads frames into out until the stream ends or ctx is done. Blank
// lines are skipped. It returns nil on a clean end of stream.
func Pump(ctx context.Context, r *Reader, out chan<- Frame) error {
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !f.Overflow && len(bytes.TrimSpace(f.Line)) == 0 {
			continue
		}
		select {
		case out <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
