package minsketch

import (
	"github.com/hupe1980/minsketch/group"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/resource"
	"github.com/hupe1980/minsketch/sketchfile"
)

// DefaultProgressInterval is the number of documents between progress logs.
const DefaultProgressInterval = 1000

type options struct {
	logger           *Logger
	metrics          MetricsCollector
	config           minhash.Config
	vocab            minhash.Vocabulary
	anomalyPolicy    group.AnomalyPolicy
	progressInterval int
	writerOptions    []sketchfile.Option
	skipUnresolved   bool
	vocabFilter      map[string]struct{}
	resources        *resource.Controller
}

// Option configures a Sketcher.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := minsketch.NewJSONLogger(slog.LevelInfo)
//	s, _ := minsketch.New(minsketch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetrics configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithNumPerm sets the signature length.
func WithNumPerm(n int) Option {
	return func(o *options) {
		o.config.NumPerm = n
	}
}

// WithSeed selects a fixed permutation seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.config.Seed = minhash.Fixed(seed)
	}
}

// WithRandomSeed draws the permutation seed once per Sketcher. Signatures
// from different Sketchers are then not comparable.
func WithRandomSeed() Option {
	return func(o *options) {
		o.config.Seed = minhash.Random()
	}
}

// WithHashFamily selects the base token hash.
func WithHashFamily(f minhash.HashFamily) Option {
	return func(o *options) {
		o.config.Family = f
	}
}

// WithVocabulary maps token ids to strings before hashing. Without a
// vocabulary, ids are hashed as decimal strings.
func WithVocabulary(v minhash.Vocabulary) Option {
	return func(o *options) {
		o.vocab = v
	}
}

// WithAnomalyPolicy selects how merges that do not grow a set are treated.
func WithAnomalyPolicy(p group.AnomalyPolicy) Option {
	return func(o *options) {
		o.anomalyPolicy = p
	}
}

// WithProgressInterval sets how many documents pass between progress logs.
// Zero or less disables progress logging.
func WithProgressInterval(n int) Option {
	return func(o *options) {
		o.progressInterval = n
	}
}

// WithWriterOptions passes options to every sketch file writer RunAll opens.
func WithWriterOptions(optFns ...sketchfile.Option) Option {
	return func(o *options) {
		o.writerOptions = append(o.writerOptions, optFns...)
	}
}

// WithSkipUnresolved drops documents whose key cannot be resolved instead of
// failing the run.
func WithSkipUnresolved() Option {
	return func(o *options) {
		o.skipUnresolved = true
	}
}

// WithVocabularyFilter restricts SketchSets to tokens contained in vocab.
func WithVocabularyFilter(vocab []string) Option {
	return func(o *options) {
		o.vocabFilter = make(map[string]struct{}, len(vocab))
		for _, t := range vocab {
			o.vocabFilter[t] = struct{}{}
		}
	}
}

// WithResourceController bounds RunAll workers and writer IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metrics:          NoopMetricsCollector{},
		config:           minhash.DefaultConfig(),
		anomalyPolicy:    group.AnomalyLog,
		progressInterval: DefaultProgressInterval,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
