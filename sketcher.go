package minsketch

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/hupe1980/minsketch/group"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/model"
	"github.com/hupe1980/minsketch/sketchfile"
)

// Resolver maps internal document keys to external document ids.
type Resolver interface {
	// DocumentID returns the id for key, or false if key is unknown.
	DocumentID(key model.DocumentKey) (string, bool)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(key model.DocumentKey) (string, bool)

// DocumentID implements Resolver.
func (f ResolverFunc) DocumentID(key model.DocumentKey) (string, bool) { return f(key) }

// DecimalKeys resolves every key to its decimal form.
var DecimalKeys Resolver = ResolverFunc(func(key model.DocumentKey) (string, bool) {
	return strconv.FormatInt(int64(key), 10), true
})

// Stats summarizes a sketching run.
type Stats struct {
	Entries   int // entries consumed
	Documents int // complete token sets produced
	Merges    int // entries unioned into a pending set
	Anomalies int // merges that did not grow the set
	Written   int // signatures written
	Skipped   int // documents dropped as unresolved
	Duration  time.Duration
}

// Sketcher turns token streams into MinHash sketch files.
// A Sketcher is safe for concurrent use; every run owns its own grouper.
type Sketcher struct {
	builder *minhash.Builder
	opts    options
}

// New creates a Sketcher. The permutation seed is resolved once here, so all
// files written by the same Sketcher are comparable.
func New(optFns ...Option) (*Sketcher, error) {
	opts := applyOptions(optFns)

	builder, err := minhash.New(opts.config)
	if err != nil {
		return nil, err
	}

	return &Sketcher{
		builder: builder,
		opts:    opts,
	}, nil
}

// Builder returns the signature builder shared by all runs.
func (s *Sketcher) Builder() *minhash.Builder {
	return s.builder
}

// Run groups chunks into complete token sets, resolves each key, and writes
// one signature per document to w in first-appearance order. w is not closed.
func (s *Sketcher) Run(ctx context.Context, chunks iter.Seq2[model.Chunk, error], resolver Resolver, w *sketchfile.Writer) (Stats, error) {
	return s.run(ctx, s.opts.logger, chunks, resolver, w)
}

func (s *Sketcher) run(ctx context.Context, logger *Logger, chunks iter.Seq2[model.Chunk, error], resolver Resolver, w *sketchfile.Writer) (Stats, error) {
	if resolver == nil {
		return Stats{}, ErrNoResolver
	}

	p := s.newProgress(logger)

	emit := func(key model.DocumentKey, tokens *model.TokenSet) error {
		id, ok := resolver.DocumentID(key)
		if !ok {
			if !s.opts.skipUnresolved {
				return &UnresolvedKeyError{Key: key}
			}
			p.stats.Skipped++
			logger.DebugContext(ctx, "skipping unresolved key", "key", int64(key))
			return nil
		}

		begin := time.Now()
		sig := s.builder.Build(tokens, s.opts.vocab)
		return p.write(ctx, w, id, tokens.Len(), sig, begin)
	}

	policy := s.opts.anomalyPolicy
	gs, err := group.Fold(ctx, chunks, emit,
		group.WithAnomalyPolicy(policy),
		group.WithAnomalyHandler(func(a group.Anomaly) {
			s.opts.metrics.RecordAnomaly()
			logger.LogAnomaly(ctx, a, policy)
		}),
	)

	p.stats.Entries = gs.Entries
	p.stats.Documents = gs.Documents
	p.stats.Merges = gs.Merges
	p.stats.Anomalies = gs.Anomalies

	return p.finish(ctx, err)
}

// SketchSets hashes already grouped token sets. Each pair is an external id
// and its tokens; duplicate tokens are harmless. With WithVocabularyFilter,
// tokens outside the vocabulary are dropped first.
func (s *Sketcher) SketchSets(ctx context.Context, sets iter.Seq2[string, []string], w *sketchfile.Writer) (Stats, error) {
	p := s.newProgress(s.opts.logger)

	var err error
	for id, tokens := range sets {
		if err = ctx.Err(); err != nil {
			break
		}
		p.stats.Entries++
		p.stats.Documents++

		begin := time.Now()
		if s.opts.vocabFilter != nil {
			tokens = slices.DeleteFunc(slices.Clone(tokens), func(t string) bool {
				_, ok := s.opts.vocabFilter[t]
				return !ok
			})
		}
		sig := s.builder.BuildStrings(slices.Values(tokens))
		if err = p.write(ctx, w, id, len(tokens), sig, begin); err != nil {
			break
		}
	}

	return p.finish(ctx, err)
}

type progress struct {
	s      *Sketcher
	logger *Logger
	start  time.Time
	stats  Stats
}

func (s *Sketcher) newProgress(logger *Logger) *progress {
	return &progress{s: s, logger: logger, start: time.Now()}
}

func (p *progress) write(ctx context.Context, w *sketchfile.Writer, id string, tokens int, sig minhash.Signature, begin time.Time) error {
	err := w.Write(id, sig)
	p.s.opts.metrics.RecordDocument(tokens, time.Since(begin), err)
	p.logger.LogDocument(ctx, id, tokens, err)
	if err != nil {
		return err
	}

	p.stats.Written++
	if n := p.s.opts.progressInterval; n > 0 && p.stats.Written%n == 0 {
		p.logger.LogProgress(ctx, p.stats.Written, time.Since(p.start))
	}
	return nil
}

func (p *progress) finish(ctx context.Context, err error) (Stats, error) {
	p.stats.Duration = time.Since(p.start)
	p.logger.LogComplete(ctx, p.stats, err)
	return p.stats, err
}
