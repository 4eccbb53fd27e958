// Package stream frames back-to-back Relish values on byte streams whose
// chunk boundaries have nothing to do with value boundaries.
package stream

import (
	"bytes"

	"github.com/relishfmt/relish"
)

// Status is the outcome of one decode attempt against a Buffer.
type Status int

const (
	// StatusNeedMore means the buffer holds a strict prefix of a value.
	StatusNeedMore Status = iota
	// StatusOK means a complete value was decoded and consumed.
	StatusOK
	// StatusError means the buffered bytes can never form a valid value.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNeedMore:
		return "need-more"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Result reports one TryDecodeOne attempt. Value and Consumed are set only
// for StatusOK, Err only for StatusError.
type Result struct {
	Status   Status
	Value    relish.Value
	Consumed int
	Err      error
}

// Buffer accumulates chunks of a Relish byte stream and decodes whole values
// off its front. A Buffer has a single owner and is not safe for concurrent
// use. The zero value is ready to use with default decoder options.
type Buffer struct {
	chunks [][]byte
	n      int
	dec    *relish.Decoder
}

// NewBuffer returns an empty buffer whose decode attempts use opts.
func NewBuffer(opts ...relish.DecoderOption) *Buffer {
	return &Buffer{dec: relish.NewDecoder(opts...)}
}

// Append adds chunk to the end of the buffer without copying it. The caller
// must not modify chunk afterwards.
func (b *Buffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	b.chunks = append(b.chunks, chunk)
	b.n += len(chunk)
}

// Write copies p onto the end of the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(bytes.Clone(p))
	return len(p), nil
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return b.n }

// TryDecodeOne attempts to decode one value from the front of the buffer.
// On StatusOK exactly Consumed bytes are removed; otherwise the buffered
// bytes are left as they were.
func (b *Buffer) TryDecodeOne() Result {
	if b.n == 0 {
		return Result{Status: StatusNeedMore}
	}
	front := b.contiguous()
	dec := b.dec
	if dec == nil {
		dec = relish.NewDecoder()
		b.dec = dec
	}
	v, n, err := dec.DecodeValue(front)
	switch {
	case relish.IsIncomplete(err):
		return Result{Status: StatusNeedMore}
	case err != nil:
		return Result{Status: StatusError, Err: err}
	}
	b.discard(n)
	return Result{Status: StatusOK, Value: v, Consumed: n}
}

// contiguous merges all chunks into one so a value spanning chunk
// boundaries can be parsed in place.
func (b *Buffer) contiguous() []byte {
	if len(b.chunks) == 1 {
		return b.chunks[0]
	}
	merged := make([]byte, 0, b.n)
	for _, c := range b.chunks {
		merged = append(merged, c...)
	}
	b.chunks = append(b.chunks[:0], merged)
	return merged
}

// discard drops n bytes from the front, splitting the first surviving chunk.
func (b *Buffer) discard(n int) {
	b.n -= n
	for n > 0 {
		head := b.chunks[0]
		if n < len(head) {
			b.chunks[0] = head[n:]
			return
		}
		n -= len(head)
		b.chunks[0] = nil
		b.chunks = b.chunks[1:]
	}
	if len(b.chunks) == 0 {
		b.chunks = nil
	}
}
