package sketchfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/codec"
	"github.com/hupe1980/minsketch/internal/conv"
	"github.com/hupe1980/minsketch/internal/fs"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/resource"
)

// State is the lifecycle state of a Reader.
type State uint8

const (
	// StateClosed: no file handle is held.
	StateClosed State = iota
	// StateOpen: the header is known and no iteration is running.
	StateOpen
	// StateReading: an iteration is in progress.
	StateReading
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateReading:
		return "reading"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Record is a decoded sketch record.
type Record struct {
	ID        string
	Signature minhash.Signature
}

// RawRecord is an undecoded record. Bytes is a view into the reader's
// batch buffer and is only valid until the iteration advances.
type RawRecord struct {
	ID    string
	Bytes []byte
}

// Reader streams records from a sketch file.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	opts    options
	src     io.Reader
	closers []io.Closer
	name    string

	header   Header
	explicit bool
	empty    bool
	leading  int // bytes of a legacy file too short for one record

	recordSize int
	batchBytes int
	buf        []byte
	n, pos     int
	eof        bool
	reserved   int64

	state    State
	batches  int
	records  int
	reported int
	skipped  int
}

// Open opens the sketch file at path.
func Open(path string, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)
	f, err := fs.Open(o.fs, path)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: open %s: %w", path, err)
	}
	if err := fs.AdviseSequential(f); err != nil {
		o.logger.Debug("fadvise failed", slog.String("path", path), slog.Any("error", err))
	}
	r, err := newReader(context.Background(), path, f, []io.Closer{f}, o)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: open %s: %w", path, err)
	}
	return r, nil
}

// OpenBlob opens the sketch file name in store.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: open blob %s: %w", name, err)
	}
	rc, err := blobstore.NewReader(ctx, b)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("sketchfile: open blob %s: %w", name, err)
	}
	r, err := newReader(ctx, name, rc, []io.Closer{rc}, o)
	if err != nil {
		return nil, fmt.Errorf("sketchfile: open blob %s: %w", name, err)
	}
	return r, nil
}

// NewReader reads a sketch stream from src. Close does not close src.
func NewReader(src io.Reader, optFns ...Option) (*Reader, error) {
	return newReader(context.Background(), "", src, nil, applyOptions(optFns))
}

func newReader(ctx context.Context, name string, src io.Reader, closers []io.Closer, o options) (*Reader, error) {
	r := &Reader{
		opts:    o,
		closers: closers,
		name:    name,
		state:   StateOpen,
	}

	if o.ioLimit != nil {
		src = resource.NewRateLimitedReader(ctx, src, o.ioLimit)
	}

	br := bufio.NewReaderSize(src, o.bufferSize)
	prefix, err := br.Peek(len(lz4Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, r.fail(err)
	}
	if c := detectCompression(prefix); c != CompressionNone {
		dec, err := newDecompressor(c, br)
		if err != nil {
			return nil, r.fail(fmt.Errorf("%s frame: %w", c, err))
		}
		r.closers = append(r.closers, dec)
		br = bufio.NewReaderSize(dec, o.bufferSize)
	}
	r.src = br

	if err := r.readHeader(br); err != nil {
		return nil, r.fail(err)
	}

	if r.empty {
		return r, nil
	}
	r.recordSize = r.header.RecordSize()
	r.batchBytes = r.recordSize * o.batchSize
	if err := r.reserve(ctx, int64(r.batchBytes)); err != nil {
		return nil, r.fail(err)
	}
	// The buffer grows toward batchBytes as data arrives, so a corrupt
	// numPerm cannot force a large allocation on a short stream.
	r.buf = make([]byte, 0, min(r.batchBytes, max(r.recordSize, o.bufferSize)))
	return r, nil
}

func (r *Reader) reserve(ctx context.Context, n int64) error {
	lim := r.opts.memLimit
	if !lim.TryAcquireMemory(n) {
		r.opts.logger.Debug("waiting for read buffer memory",
			slog.String("file", r.name),
			slog.Int64("bytes", n),
			slog.Int64("in_use", lim.MemoryUsage()),
		)
		if err := lim.AcquireMemory(ctx, n); err != nil {
			return fmt.Errorf("batch buffer: %w", err)
		}
	}
	r.reserved = n
	return nil
}

// reportRead hands records yielded since the last report to the metrics sink.
func (r *Reader) reportRead() {
	if r.opts.metrics == nil || r.records == r.reported {
		return
	}
	r.opts.metrics.RecordRecordsRead(r.records - r.reported)
	r.reported = r.records
}

// fill reads the next batch. It returns io.EOF or io.ErrUnexpectedEOF like
// io.ReadFull when the stream ends before the batch is complete.
func (r *Reader) fill() (int, error) {
	r.buf = r.buf[:0]
	for len(r.buf) < r.batchBytes {
		if len(r.buf) == cap(r.buf) {
			r.buf = slices.Grow(r.buf, min(cap(r.buf), r.batchBytes-len(r.buf)))
		}
		end := min(cap(r.buf), r.batchBytes)
		n, err := io.ReadFull(r.src, r.buf[len(r.buf):end])
		r.buf = r.buf[:len(r.buf)+n]
		if err != nil {
			if errors.Is(err, io.EOF) && len(r.buf) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return len(r.buf), err
		}
	}
	return len(r.buf), nil
}

// readHeader consumes an explicit header, or peeks the first legacy record
// prefix without consuming it.
func (r *Reader) readHeader(br *bufio.Reader) error {
	magic, err := br.Peek(len(Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if HasMagic(magic) {
		var raw [HeaderSize]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
		}
		h, err := ParseHeader(raw[:])
		if err != nil {
			return err
		}
		r.header = h
		r.explicit = true
		return nil
	}

	prefix, err := br.Peek(codec.PrefixSize)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return err
		}
		r.empty = true
		r.leading = len(prefix)
		return nil
	}
	seed, stored, _ := codec.PeekPrefix(prefix)
	numPerm, err := conv.Count(stored)
	if err != nil || numPerm > minhash.MaxNumPerm {
		return fmt.Errorf("first record: %w: %d", codec.ErrInvalidNumPerm, stored)
	}
	r.header = Header{
		SeedPolicy: minhash.SeedFixed,
		Family:     minhash.FamilySHA1,
		NumPerm:    numPerm,
		Seed:       seed,
	}
	return nil
}

func (r *Reader) fail(err error) error {
	if cerr := r.Close(); cerr != nil {
		err = multierror.Append(err, cerr)
	}
	return err
}

// Header returns the file header. For legacy files it is synthesized from
// the first record and HasHeader reports false.
func (r *Reader) Header() Header { return r.header }

// HasHeader reports whether the file starts with an explicit header.
func (r *Reader) HasHeader() bool { return r.explicit }

// NumPerm returns the number of hash values per record, or 0 for an empty
// legacy file.
func (r *Reader) NumPerm() int { return r.header.NumPerm }

// Seed returns the header seed, or the seed of the first legacy record.
func (r *Reader) Seed() int64 { return r.header.Seed }

// RecordSize returns the size of one record in bytes.
func (r *Reader) RecordSize() int { return r.recordSize }

// Batches returns the number of read cycles that returned data.
func (r *Reader) Batches() int { return r.batches }

// Count returns the number of records yielded so far.
func (r *Reader) Count() int { return r.records }

// Skipped returns the number of records rejected by the filter.
func (r *Reader) Skipped() int { return r.skipped }

// State returns the lifecycle state.
func (r *Reader) State() State { return r.state }

// Close releases the underlying file and the batch buffer. Close is
// idempotent.
func (r *Reader) Close() error {
	if r.state == StateClosed {
		return nil
	}
	r.state = StateClosed
	r.reportRead()
	r.buf = nil
	r.opts.memLimit.ReleaseMemory(r.reserved)
	r.reserved = 0

	var result *multierror.Error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.closers = nil
	return result.ErrorOrNil()
}

// scan yields complete records in file order. Calling it again resumes
// where the previous iteration stopped.
func (r *Reader) scan(yield func(id string, rec []byte) bool) error {
	if r.state == StateClosed {
		return ErrClosed
	}
	if r.empty {
		return r.trailing(r.leading)
	}

	r.state = StateReading
	defer func() {
		if r.state == StateReading {
			r.state = StateOpen
		}
	}()

	for {
		for r.pos+r.recordSize <= r.n {
			rec := r.buf[r.pos : r.pos+r.recordSize]
			r.pos += r.recordSize

			if r.explicit {
				if _, np, _ := codec.PeekPrefix(rec); int(np) != r.header.NumPerm {
					return &NumPermMismatchError{Record: r.records + r.skipped, Want: r.header.NumPerm, Got: int(np)}
				}
			}
			id, err := codec.DecodeID(rec)
			if err != nil {
				return fmt.Errorf("record %d: %w", r.records+r.skipped, err)
			}
			if r.opts.filter != nil && !r.opts.filter(id) {
				r.skipped++
				continue
			}
			r.records++
			if !yield(id, rec) {
				return nil
			}
		}

		if r.eof {
			partial := r.n - r.pos
			r.pos = r.n
			return r.trailing(partial)
		}

		r.reportRead()
		n, err := r.fill()
		r.n, r.pos = n, 0
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			r.eof = true
		default:
			return fmt.Errorf("sketchfile: read: %w", err)
		}
		if n > 0 {
			r.batches++
		}
	}
}

func (r *Reader) trailing(partial int) error {
	if partial == 0 {
		return nil
	}
	size := r.recordSize
	if size == 0 {
		size = codec.PrefixSize
	}
	if r.opts.trailing == TrailingStrict {
		return &TruncatedError{Records: r.records + r.skipped, Partial: partial, RecordSize: size}
	}
	r.opts.logger.Debug("dropped trailing partial record",
		slog.String("file", r.name),
		slog.Int("bytes", partial),
		slog.Int("record_size", size),
		slog.Int("records", r.records+r.skipped),
	)
	if r.empty {
		r.leading = 0
	}
	return nil
}

// Records yields decoded records. An error ends the sequence.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		err := r.scan(func(_ string, rec []byte) bool {
			id, sig, err := codec.Decode(rec, r.header.NumPerm)
			if err != nil {
				yield(Record{}, err)
				return false
			}
			return yield(Record{ID: id, Signature: sig}, nil)
		})
		if err != nil {
			yield(Record{}, err)
		}
	}
}

// Raw yields records without decoding the hash values.
func (r *Reader) Raw() iter.Seq2[RawRecord, error] {
	return func(yield func(RawRecord, error) bool) {
		err := r.scan(func(id string, rec []byte) bool {
			return yield(RawRecord{ID: id, Bytes: rec}, nil)
		})
		if err != nil {
			yield(RawRecord{}, err)
		}
	}
}

// ReadFile opens path, yields its decoded records and closes it on every
// exit path, including a consumer break.
func ReadFile(path string, optFns ...Option) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r, err := Open(path, optFns...)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer r.Close()

		for rec, err := range r.Records() {
			if !yield(rec, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := r.Close(); err != nil {
			yield(Record{}, err)
		}
	}
}
