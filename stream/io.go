package stream

import (
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/relishfmt/relish"
)

// ReaderChunks adapts r into a chunk sequence for DecodeSeq, reading up to
// size bytes at a time. The sequence ends at io.EOF or the first read
// error; the returned func reports that error, or nil after a clean EOF.
func ReaderChunks(r io.Reader, size int) (iter.Seq[[]byte], func() error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var readErr error
	seq := func(yield func([]byte) bool) {
		for {
			p := make([]byte, size)
			n, err := r.Read(p)
			if n > 0 && !yield(p[:n]) {
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				readErr = err
				return
			}
		}
	}
	return seq, func() error { return readErr }
}

// Decoder reads consecutive Relish values from an io.Reader.
type Decoder struct {
	r     io.Reader
	f     framer
	chunk []byte
	eof   bool
	err   error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	cfg := newConfig(opts)
	return &Decoder{
		r:     r,
		f:     framer{buf: NewBuffer(cfg.decOpts...), logger: cfg.logger},
		chunk: make([]byte, cfg.chunkSize),
	}
}

// Next returns the next value. After the last complete value it returns
// io.EOF, or an error of kind relish.ErrTruncatedStream if the reader ended
// partway through a value. Errors are sticky.
func (d *Decoder) Next() (relish.Value, error) {
	if d.err != nil {
		return nil, d.err
	}
	for {
		v, err := d.f.next()
		if err != nil {
			d.err = err
			return nil, err
		}
		if v != nil {
			return v, nil
		}
		if d.eof {
			d.err = d.f.finish()
			if d.err == nil {
				d.err = io.EOF
			}
			return nil, d.err
		}
		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.f.buf.Write(d.chunk[:n])
		}
		switch {
		case errors.Is(err, io.EOF):
			d.eof = true
		case err != nil:
			d.err = err
			return nil, err
		}
	}
}

// Offset returns the stream position just past the last decoded value.
func (d *Decoder) Offset() int64 { return d.f.offset }

// All iterates the remaining values. A clean end stops without an error.
func (d *Decoder) All() iter.Seq2[relish.Value, error] {
	return func(yield func(relish.Value, error) bool) {
		for {
			v, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Writer writes values back to back onto an io.Writer.
type Writer struct {
	enc    *relish.Encoder
	frames int
	logger *slog.Logger
}

// NewWriter returns a Writer encoding onto w.
func NewWriter(w io.Writer, logger *slog.Logger, opts ...relish.EncoderOption) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{enc: relish.NewEncoder(w, opts...), logger: logger}
}

// WriteValue encodes v. A value that fails validation writes nothing, so
// the stream stays well formed and later values can still be written.
func (w *Writer) WriteValue(v relish.Value) error {
	if err := w.enc.Encode(v); err != nil {
		w.logger.Debug("frame rejected", "frame", w.frames, "error", err)
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of values written so far.
func (w *Writer) Frames() int { return w.frames }
