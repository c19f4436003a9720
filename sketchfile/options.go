package sketchfile

import (
	"log/slog"

	"github.com/hupe1980/minsketch/internal/fs"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/resource"
)

// DefaultBatchSize is the number of records read per cycle.
const DefaultBatchSize = 100

// TrailingPolicy selects how a partial record at end of file is handled.
type TrailingPolicy uint8

const (
	// TrailingSkip drops the partial record and logs it at debug level.
	TrailingSkip TrailingPolicy = iota
	// TrailingStrict fails with a *TruncatedError.
	TrailingStrict
)

func (p TrailingPolicy) String() string {
	if p == TrailingStrict {
		return "strict"
	}
	return "skip"
}

type options struct {
	fs          fs.FileSystem
	logger      *slog.Logger
	batchSize   int
	trailing    TrailingPolicy
	filter      func(id string) bool
	header      bool
	compression Compression
	ioLimit     *resource.Controller
	memLimit    *resource.Controller
	builder     *minhash.Builder
	fileHeader  *Header
	bufferSize  int
	metrics     ReadMetrics
}

// Option configures a Reader or Writer. Options that do not apply to the
// side being opened are ignored.
type Option func(*options)

// WithFileSystem sets the file system used by Open and Create.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

// WithBatchSize sets how many records a Reader reads per cycle.
// Values below 1 select DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultBatchSize
		}
		o.batchSize = n
	}
}

// WithTrailingPolicy selects how a Reader treats a partial last record.
func WithTrailingPolicy(p TrailingPolicy) Option {
	return func(o *options) {
		o.trailing = p
	}
}

// WithFilter makes a Reader skip records whose id fails keep. Skipped
// records are never decoded past the id.
func WithFilter(keep func(id string) bool) Option {
	return func(o *options) {
		o.filter = keep
	}
}

// WithHeader controls whether a Writer writes the file header. The default
// is the headerless layout: a flat concatenation of records that any reader
// of the record format understands. Readers accept both layouts.
func WithHeader(enabled bool) Option {
	return func(o *options) {
		o.header = enabled
	}
}

// WithCompression frames a Writer's output. Readers detect the frame.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithRateLimit throttles bytes read or written through c's IO limit.
func WithRateLimit(c *resource.Controller) Option {
	return func(o *options) {
		o.ioLimit = c
	}
}

// WithMemoryLimit accounts a Reader's batch buffer against c.
func WithMemoryLimit(c *resource.Controller) Option {
	return func(o *options) {
		o.memLimit = c
	}
}

// WithBuilder fixes numPerm before anything is written and, with WithHeader,
// fills the header from b instead of the first record.
func WithBuilder(b *minhash.Builder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// WithFileHeader fixes numPerm to h.NumPerm and, with WithHeader, makes a
// Writer emit h, typically copied from a Reader. It takes precedence over
// WithBuilder.
func WithFileHeader(h Header) Option {
	return func(o *options) {
		o.fileHeader = &h
	}
}

// ReadMetrics receives the number of records a Reader yields.
type ReadMetrics interface {
	RecordRecordsRead(n int)
}

// WithReadMetrics reports yielded records to m after every batch and on
// Close.
func WithReadMetrics(m ReadMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBufferSize sets the size of the I/O buffer.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fs:         fs.Default,
		logger:     slog.New(slog.DiscardHandler),
		batchSize:  DefaultBatchSize,
		trailing:   TrailingSkip,
		bufferSize: 64 * 1024,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
