package group

import (
	"context"
	"iter"

	"github.com/hupe1980/minsketch/model"
)

// EmitFunc receives each complete token set exactly once.
// The grouper does not touch tokens after the call returns.
type EmitFunc func(key model.DocumentKey, tokens *model.TokenSet) error

// Stats summarizes a grouping run.
type Stats struct {
	Entries   int // entries consumed
	Documents int // token sets emitted
	Merges    int // entries unioned into a pending set
	Anomalies int // merges that did not grow the set
}

// Grouper folds an ordered entry stream into complete per-key token sets.
// It is not safe for concurrent use.
type Grouper struct {
	emit    EmitFunc
	opts    options
	pending model.Entry
	open    bool
	stats   Stats
}

// New creates a Grouper that hands complete sets to emit.
func New(emit EmitFunc, optFns ...Option) *Grouper {
	return &Grouper{
		emit: emit,
		opts: applyOptions(optFns),
	}
}

// Add consumes one entry. The grouper takes ownership of e.Tokens and may
// mutate it.
func (g *Grouper) Add(e model.Entry) error {
	g.stats.Entries++
	if e.Tokens == nil {
		e.Tokens = model.NewTokenSet()
	}

	if g.open && g.pending.Key == e.Key {
		return g.merge(e.Tokens)
	}

	if err := g.Flush(); err != nil {
		return err
	}
	g.pending = e
	g.open = true
	return nil
}

func (g *Grouper) merge(tokens *model.TokenSet) error {
	g.stats.Merges++

	before := g.pending.Tokens.Len()
	grew := g.pending.Tokens.Union(tokens)
	if grew || before == 0 || tokens.Len() == 0 {
		return nil
	}

	a := Anomaly{
		Key:      g.pending.Key,
		Before:   before,
		Incoming: tokens.Len(),
		After:    g.pending.Tokens.Len(),
	}
	g.stats.Anomalies++
	g.opts.logger.Warn("merge did not grow token set",
		"key", int64(a.Key),
		"before", a.Before,
		"incoming", a.Incoming,
		"after", a.After,
		"policy", g.opts.policy.String(),
	)
	if g.opts.onAnomaly != nil {
		g.opts.onAnomaly(a)
	}
	if g.opts.policy == AnomalyFail {
		return &AnomalyError{Anomaly: a}
	}
	return nil
}

// Flush emits the pending entry, if any. It must be called at the end of the
// stream; the last key has no following key to trigger its emission.
func (g *Grouper) Flush() error {
	if !g.open {
		return nil
	}
	e := g.pending
	g.pending = model.Entry{}
	g.open = false

	g.stats.Documents++
	return g.emit(e.Key, e.Tokens)
}

// Stats returns counters accumulated so far.
func (g *Grouper) Stats() Stats {
	return g.stats
}

// Fold drives a Grouper over chunks and flushes at the end of the stream.
// It stops at the first error from the stream, emit or the context.
func Fold(ctx context.Context, chunks iter.Seq2[model.Chunk, error], emit EmitFunc, optFns ...Option) (Stats, error) {
	g := New(emit, optFns...)

	for chunk, err := range chunks {
		if err != nil {
			return g.Stats(), err
		}
		if err := ctx.Err(); err != nil {
			return g.Stats(), err
		}
		for _, e := range chunk {
			if err := g.Add(e); err != nil {
				return g.Stats(), err
			}
		}
	}

	if err := g.Flush(); err != nil {
		return g.Stats(), err
	}
	return g.Stats(), nil
}

// Chunks adapts a slice of chunks into a stream for Fold.
func Chunks(chunks ...model.Chunk) iter.Seq2[model.Chunk, error] {
	return func(yield func(model.Chunk, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}
