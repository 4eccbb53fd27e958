package stream

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/relishfmt/relish"
)

// DefaultChunkSize is the read size Decoder uses unless WithChunkSize is given.
const DefaultChunkSize = 4096

type config struct {
	chunkSize int
	logger    *slog.Logger
	decOpts   []relish.DecoderOption
}

// Option configures stream decoding.
type Option func(*config)

// WithChunkSize sets how many bytes Decoder requests per Read.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithLogger routes per-frame debug events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDecoderOptions passes opts to every value decode.
func WithDecoderOptions(opts ...relish.DecoderOption) Option {
	return func(c *config) { c.decOpts = append(c.decOpts, opts...) }
}

func newConfig(opts []Option) config {
	c := config{
		chunkSize: DefaultChunkSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// EncodeSeq encodes each value independently. A value that fails to encode
// yields its error and iteration continues with the next value.
func EncodeSeq(values iter.Seq[relish.Value], opts ...relish.EncoderOption) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for v := range values {
			b, err := relish.Encode(v, opts...)
			if !yield(b, err) {
				return
			}
		}
	}
}

// DecodeSeq decodes the values carried by a chunked byte stream. Chunk
// boundaries may fall anywhere, including inside a length prefix.
//
// A malformed value yields its error and ends the sequence; nothing after
// it is trusted. If the input ends partway through a value, the last item
// is an error of kind relish.ErrTruncatedStream. Error offsets count from
// the start of the stream. Chunks are copied, so the producer may reuse them.
func DecodeSeq(chunks iter.Seq[[]byte], opts ...Option) iter.Seq2[relish.Value, error] {
	cfg := newConfig(opts)
	return func(yield func(relish.Value, error) bool) {
		f := framer{buf: NewBuffer(cfg.decOpts...), logger: cfg.logger}
		for chunk := range chunks {
			f.buf.Write(chunk)
			for {
				v, err := f.next()
				if v == nil && err == nil {
					break
				}
				if !yield(v, err) || err != nil {
					return
				}
			}
		}
		if err := f.finish(); err != nil {
			yield(nil, err)
		}
	}
}

// framer tracks where the buffer front sits in the overall stream.
type framer struct {
	buf    *Buffer
	offset int64
	logger *slog.Logger
}

// next returns the next decoded value, a structural error, or (nil, nil)
// when more input is needed.
func (f *framer) next() (relish.Value, error) {
	r := f.buf.TryDecodeOne()
	switch r.Status {
	case StatusOK:
		f.logger.Debug("frame decoded", "offset", f.offset, "size", r.Consumed, "type", r.Value.Type())
		f.offset += int64(r.Consumed)
		return r.Value, nil
	case StatusError:
		return nil, rebase(r.Err, f.offset)
	}
	return nil, nil
}

// finish reports leftover bytes once the input has ended.
func (f *framer) finish() error {
	if f.buf.Len() == 0 {
		return nil
	}
	f.logger.Debug("truncated tail", "offset", f.offset, "size", f.buf.Len())
	return &relish.DecodeError{
		Offset: f.offset,
		Kind:   relish.ErrTruncatedStream,
		Detail: fmt.Sprintf("input ended %d bytes into a value", f.buf.Len()),
	}
}

// rebase shifts a buffer-relative decode error to a stream offset.
func rebase(err error, base int64) error {
	var de *relish.DecodeError
	if !errors.As(err, &de) {
		return err
	}
	shifted := *de
	shifted.Offset += base
	return &shifted
}
