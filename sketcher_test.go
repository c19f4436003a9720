package minsketch

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/hupe1980/minsketch/group"
	"github.com/hupe1980/minsketch/model"
	"github.com/hupe1980/minsketch/sketchfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyMap map[model.DocumentKey]string

func (m keyMap) DocumentID(key model.DocumentKey) (string, bool) {
	id, ok := m[key]
	return id, ok
}

func newTestSketcher(t *testing.T, optFns ...Option) *Sketcher {
	t.Helper()
	s, err := New(append([]Option{WithNumPerm(16), WithSeed(7)}, optFns...)...)
	require.NoError(t, err)
	return s
}

func newBufferWriter(t *testing.T, s *Sketcher, buf *bytes.Buffer) *sketchfile.Writer {
	t.Helper()
	w, err := sketchfile.NewWriter(buf, sketchfile.WithBuilder(s.Builder()))
	require.NoError(t, err)
	return w
}

func readAll(t *testing.T, data []byte) []sketchfile.Record {
	t.Helper()
	r, err := sketchfile.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var out []sketchfile.Record
	for rec, err := range r.Records() {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestSketcher_Run(t *testing.T) {
	s := newTestSketcher(t)

	chunks := group.Chunks(
		model.Chunk{model.NewEntry(1, 1, 2), model.NewEntry(2, 5)},
		model.Chunk{model.NewEntry(2, 6), model.NewEntry(3, 9)},
		model.Chunk{model.NewEntry(3, 10, 11)},
	)
	resolver := keyMap{1: "doc-a", 2: "doc-b", 3: "doc-c"}

	var buf bytes.Buffer
	w := newBufferWriter(t, s, &buf)
	stats, err := s.Run(context.Background(), chunks, resolver, w)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 5, stats.Entries)
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 2, stats.Merges)
	assert.Zero(t, stats.Skipped)

	records := readAll(t, buf.Bytes())
	require.Len(t, records, 3)

	want := map[string]*model.TokenSet{
		"doc-a": model.NewTokenSet(1, 2),
		"doc-b": model.NewTokenSet(5, 6),
		"doc-c": model.NewTokenSet(9, 10, 11),
	}
	for i, id := range []string{"doc-a", "doc-b", "doc-c"} {
		assert.Equal(t, id, records[i].ID)
		expected := s.Builder().Build(want[id], nil)
		assert.True(t, expected.Equal(records[i].Signature), "signature of %s", id)
	}
}

func TestSketcher_Run_Unresolved(t *testing.T) {
	chunks := group.Chunks(model.Chunk{model.NewEntry(1, 1), model.NewEntry(2, 2), model.NewEntry(3, 3)})
	resolver := keyMap{1: "a", 3: "c"}

	t.Run("fail", func(t *testing.T) {
		s := newTestSketcher(t)
		var buf bytes.Buffer
		_, err := s.Run(context.Background(), chunks, resolver, newBufferWriter(t, s, &buf))
		require.ErrorIs(t, err, ErrUnresolvedKey)

		var uerr *UnresolvedKeyError
		require.True(t, errors.As(err, &uerr))
		assert.Equal(t, model.DocumentKey(2), uerr.Key)
	})

	t.Run("skip", func(t *testing.T) {
		s := newTestSketcher(t, WithSkipUnresolved())
		var buf bytes.Buffer
		w := newBufferWriter(t, s, &buf)
		stats, err := s.Run(context.Background(), chunks, resolver, w)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 2, stats.Written)

		records := readAll(t, buf.Bytes())
		require.Len(t, records, 2)
		assert.Equal(t, "a", records[0].ID)
		assert.Equal(t, "c", records[1].ID)
	})
}

func TestSketcher_Run_NoResolver(t *testing.T) {
	s := newTestSketcher(t)
	var buf bytes.Buffer
	_, err := s.Run(context.Background(), group.Chunks(), nil, newBufferWriter(t, s, &buf))
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestSketcher_Run_Anomalies(t *testing.T) {
	anomalous := group.Chunks(
		model.Chunk{model.NewEntry(1, 1, 2)},
		model.Chunk{model.NewEntry(1, 2)},
	)

	t.Run("log", func(t *testing.T) {
		var logBuf bytes.Buffer
		metrics := &BasicMetricsCollector{}
		s := newTestSketcher(t,
			WithLogger(NewLogger(slog.NewJSONHandler(&logBuf, nil))),
			WithMetrics(metrics),
		)

		var buf bytes.Buffer
		stats, err := s.Run(context.Background(), anomalous, DecimalKeys, newBufferWriter(t, s, &buf))
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Anomalies)
		assert.Equal(t, int64(1), metrics.GetStats().AnomalyCount)
		assert.Contains(t, logBuf.String(), "merge did not grow token set")
		assert.Contains(t, logBuf.String(), `"policy":"log"`)
	})

	t.Run("fail", func(t *testing.T) {
		s := newTestSketcher(t, WithAnomalyPolicy(group.AnomalyFail))
		var buf bytes.Buffer
		_, err := s.Run(context.Background(), anomalous, DecimalKeys, newBufferWriter(t, s, &buf))
		assert.ErrorIs(t, err, group.ErrAnomalousMerge)
	})
}

func TestSketcher_Run_Progress(t *testing.T) {
	var logBuf bytes.Buffer
	s := newTestSketcher(t,
		WithLogger(NewLogger(slog.NewJSONHandler(&logBuf, nil))),
		WithProgressInterval(2),
	)

	var chunk model.Chunk
	for k := range 5 {
		chunk = append(chunk, model.NewEntry(model.DocumentKey(k), uint32(k)))
	}

	var buf bytes.Buffer
	_, err := s.Run(context.Background(), group.Chunks(chunk), DecimalKeys, newBufferWriter(t, s, &buf))
	require.NoError(t, err)

	out := logBuf.String()
	assert.Equal(t, 2, strings.Count(out, "sketching progress"))
	assert.Equal(t, 1, strings.Count(out, "sketching complete"))
	assert.Contains(t, out, `"written":5`)
}

func TestSketcher_Run_StreamError(t *testing.T) {
	errSource := errors.New("source failed")
	chunks := func(yield func(model.Chunk, error) bool) {
		if !yield(model.Chunk{model.NewEntry(1, 1)}, nil) {
			return
		}
		yield(nil, errSource)
	}

	var logBuf bytes.Buffer
	s := newTestSketcher(t, WithLogger(NewLogger(slog.NewJSONHandler(&logBuf, nil))))
	var buf bytes.Buffer
	_, err := s.Run(context.Background(), chunks, DecimalKeys, newBufferWriter(t, s, &buf))
	assert.ErrorIs(t, err, errSource)
	assert.Contains(t, logBuf.String(), "sketching failed")
}

func TestSketcher_Run_Vocabulary(t *testing.T) {
	vocab := vocabMap{1: "alpha", 2: "beta"}
	s := newTestSketcher(t, WithVocabulary(vocab))

	var buf bytes.Buffer
	w := newBufferWriter(t, s, &buf)
	_, err := s.Run(context.Background(), group.Chunks(model.Chunk{model.NewEntry(1, 1, 2, 3)}), DecimalKeys, w)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	records := readAll(t, buf.Bytes())
	require.Len(t, records, 1)

	// Token 3 has no vocabulary entry and is skipped.
	expected := s.Builder().BuildStrings(slices.Values([]string{"alpha", "beta"}))
	assert.True(t, expected.Equal(records[0].Signature))
}

type vocabMap map[model.TokenID]string

func (m vocabMap) Token(id model.TokenID) (string, bool) {
	t, ok := m[id]
	return t, ok
}

func pairs(sets map[string][]string, order ...string) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, id := range order {
			if !yield(id, sets[id]) {
				return
			}
		}
	}
}

func TestSketcher_SketchSets(t *testing.T) {
	sets := map[string][]string{
		"x": {"the", "quick", "fox"},
		"y": {"lazy", "dog", "the"},
	}

	metrics := &BasicMetricsCollector{}
	s := newTestSketcher(t, WithVocabularyFilter([]string{"quick", "fox", "dog"}), WithMetrics(metrics))

	var buf bytes.Buffer
	w := newBufferWriter(t, s, &buf)
	stats, err := s.SketchSets(context.Background(), pairs(sets, "x", "y"), w)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, 2, stats.Written)

	records := readAll(t, buf.Bytes())
	require.Len(t, records, 2)

	wantX := s.Builder().BuildStrings(slices.Values([]string{"quick", "fox"}))
	wantY := s.Builder().BuildStrings(slices.Values([]string{"dog"}))
	assert.True(t, wantX.Equal(records[0].Signature))
	assert.True(t, wantY.Equal(records[1].Signature))

	// The caller's slices are not modified by filtering.
	assert.Equal(t, []string{"the", "quick", "fox"}, sets["x"])

	ms := metrics.GetStats()
	assert.Equal(t, int64(2), ms.DocumentCount)
	assert.Equal(t, int64(3), ms.DocumentTokens)
	assert.Zero(t, ms.DocumentErrors)
}

func TestSketcher_SketchSets_Canceled(t *testing.T) {
	s := newTestSketcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	stats, err := s.SketchSets(ctx, pairs(map[string][]string{"a": {"x"}}, "a"), newBufferWriter(t, s, &buf))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Written)
}

func TestSketcher_SketchSets_WriteError(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newTestSketcher(t, WithMetrics(metrics))

	var buf bytes.Buffer
	w := newBufferWriter(t, s, &buf)
	sets := map[string][]string{"ok": {"a"}, strings.Repeat("x", 31): {"b"}}
	_, err := s.SketchSets(context.Background(), pairs(sets, slices.Sorted(maps.Keys(sets))...), w)
	require.Error(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().DocumentErrors)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(WithNumPerm(-1))
	assert.Error(t, err)
}

func TestNew_RandomSeedIsStable(t *testing.T) {
	s, err := New(WithRandomSeed(), WithNumPerm(8))
	require.NoError(t, err)

	a := s.Builder().BuildStrings(slices.Values([]string{"t"}))
	b := s.Builder().BuildStrings(slices.Values([]string{"t"}))
	assert.True(t, a.Equal(b))
}
