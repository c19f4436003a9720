package sketchfile

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/codec"
	"github.com/hupe1980/minsketch/internal/fs"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/resource"
)

// Writer appends records to a sketch file.
//
// A Writer is not safe for concurrent use; one producer owns each file.
type Writer struct {
	opts options

	bw     *bufio.Writer
	comp   io.WriteCloser
	sink   io.Writer
	closer io.Closer

	header        Header
	headerWritten bool
	numPerm       int

	scratch []byte
	count   int
	bytes   int64
	closed  bool
}

// Create creates or truncates the sketch file at path.
func Create(path string, optFns ...Option) (*Writer, error) {
	o := applyOptions(optFns)
	f, err := fs.Create(o.fs, path)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: create %s: %w", path, err)
	}
	w, err := newWriter(context.Background(), f, f, o)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sketchfile: create %s: %w", path, err)
	}
	return w, nil
}

// CreateBlob creates the sketch file name in store. The blob becomes
// visible when Close succeeds.
func CreateBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Writer, error) {
	o := applyOptions(optFns)
	b, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: create blob %s: %w", name, err)
	}
	w, err := newWriter(ctx, b, b, o)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("sketchfile: create blob %s: %w", name, err)
	}
	return w, nil
}

// NewWriter writes a sketch stream to dst. Close flushes but does not close
// dst.
func NewWriter(dst io.Writer, optFns ...Option) (*Writer, error) {
	return newWriter(context.Background(), dst, nil, applyOptions(optFns))
}

func newWriter(ctx context.Context, dst io.Writer, closer io.Closer, o options) (*Writer, error) {
	w := &Writer{
		opts:   o,
		sink:   dst,
		closer: closer,
	}

	out := dst
	if o.ioLimit != nil {
		out = resource.NewRateLimitedWriter(ctx, out, o.ioLimit)
	}
	comp, err := newCompressor(o.compression, out)
	if err != nil {
		return nil, err
	}
	w.comp = comp
	w.bw = bufio.NewWriterSize(comp, o.bufferSize)

	switch {
	case o.fileHeader != nil:
		w.header = *o.fileHeader
		w.numPerm = o.fileHeader.NumPerm
	case o.builder != nil:
		w.header = HeaderFor(o.builder)
		w.numPerm = o.builder.NumPerm()
	}
	return w, nil
}

// Write appends the record for id and sig.
func (w *Writer) Write(id string, sig minhash.Signature) error {
	if w.closed {
		return ErrClosed
	}
	if err := w.checkNumPerm(sig.NumPerm()); err != nil {
		return err
	}

	rec, err := codec.AppendRecord(w.scratch[:0], id, sig)
	if err != nil {
		return err
	}
	w.scratch = rec
	return w.write(rec, sig.Seed)
}

// WriteRaw appends an already encoded record.
func (w *Writer) WriteRaw(rec []byte) error {
	if w.closed {
		return ErrClosed
	}
	seed, np, err := codec.PeekPrefix(rec)
	if err != nil {
		return err
	}
	if np < 1 {
		return fmt.Errorf("%w: %d", codec.ErrInvalidNumPerm, np)
	}
	numPerm := int(np)
	if size := codec.RecordSize(numPerm); len(rec) != size {
		if len(rec) < size {
			return &codec.ShortBufferError{Need: size, Have: len(rec)}
		}
		return fmt.Errorf("sketchfile: raw record is %d bytes, want %d", len(rec), size)
	}
	if err := w.checkNumPerm(numPerm); err != nil {
		return err
	}
	if _, err := codec.DecodeID(rec); err != nil {
		return err
	}
	return w.write(rec, seed)
}

func (w *Writer) checkNumPerm(numPerm int) error {
	if w.numPerm == 0 {
		w.numPerm = numPerm
		return nil
	}
	if numPerm != w.numPerm {
		return &NumPermMismatchError{Record: w.count, Want: w.numPerm, Got: numPerm}
	}
	return nil
}

func (w *Writer) write(rec []byte, seed int64) error {
	if err := w.writeHeader(seed); err != nil {
		return err
	}
	n, err := w.bw.Write(rec)
	w.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("sketchfile: write: %w", err)
	}
	w.count++
	return nil
}

// writeHeader emits the header once numPerm is known. Without WithBuilder
// the first record supplies seed and numPerm.
func (w *Writer) writeHeader(seed int64) error {
	if w.headerWritten || !w.opts.header {
		return nil
	}
	if w.header.NumPerm == 0 {
		w.header = Header{
			Version:    Version,
			SeedPolicy: minhash.SeedFixed,
			Family:     minhash.FamilySHA1,
			NumPerm:    w.numPerm,
			Seed:       seed,
		}
	}
	buf, err := w.header.AppendBinary(make([]byte, 0, HeaderSize))
	if err != nil {
		return err
	}
	n, err := w.bw.Write(buf)
	w.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("sketchfile: write header: %w", err)
	}
	w.headerWritten = true
	return nil
}

// Header returns the header written, or to be written, to the file.
func (w *Writer) Header() Header { return w.header }

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }

// Bytes returns the number of uncompressed bytes written, header included.
func (w *Writer) Bytes() int64 { return w.bytes }

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.bw.Flush()
}

// Abort discards the file. Blob destinations that support it are never
// published; other destinations are closed with whatever was flushed.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.comp.Close()

	if a, ok := w.closer.(blobstore.Aborter); ok {
		return a.Abort()
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Close flushes buffered data, finishes the compression frame, syncs and
// closes the file. All failures are reported.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var result *multierror.Error
	if w.count == 0 && w.header.NumPerm > 0 {
		if err := w.writeHeader(w.header.Seed); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := w.bw.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush: %w", err))
	}
	if err := w.comp.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("finish %s frame: %w", w.opts.compression, err))
	}
	if s, ok := w.sink.(interface{ Sync() error }); ok && w.closer != nil {
		if err := s.Sync(); err != nil {
			result = multierror.Append(result, fmt.Errorf("sync: %w", err))
		}
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close: %w", err))
		}
	}
	return result.ErrorOrNil()
}
