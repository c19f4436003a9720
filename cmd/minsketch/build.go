package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch"
	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/catalog"
	"github.com/hupe1980/minsketch/lookup"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/resource"
	"github.com/hupe1980/minsketch/sketchfile"
)

func buildCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "sketch token streams into hashes.<n>.dat files",
		ArgsUsage: "INPUT...",
		Description: "Each INPUT becomes one shard. By default inputs hold grouped\n" +
			"\"key<TAB>token-id [token-id...]\" lines; with --sets they hold\n" +
			"\"id<TAB>token [token...]\" lines. Inputs may be gzip-compressed.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "first-shard", Usage: "shard number of the first input"},
			&cli.BoolFlag{Name: "sets", Usage: "inputs are already grouped string sets"},
			&cli.IntFlag{Name: "num-perm", Usage: "signature length"},
			&cli.Int64Flag{Name: "seed", Usage: "permutation seed"},
			&cli.BoolFlag{Name: "random-seed", Usage: "draw the permutation seed at random"},
			&cli.StringFlag{Name: "hash-family", Usage: "sha1, murmur3 or xxhash"},
			&cli.StringFlag{Name: "compression", Usage: "none, lz4 or zstd"},
			&cli.BoolFlag{Name: "header", Usage: "prefix each file with a self-describing header"},
			&cli.StringFlag{Name: "anomaly-policy", Usage: "log or fail"},
			&cli.BoolFlag{Name: "skip-unresolved", Usage: "drop documents whose key has no id"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "shards sketched concurrently"},
			&cli.IntFlag{Name: "chunk-size", Usage: "entries per chunk"},
			&cli.StringFlag{Name: "keys", Usage: "TSV table of key<TAB>document id"},
			&cli.StringFlag{Name: "vocab", Usage: "TSV word list; row n is token id n"},
			&cli.StringFlag{Name: "vocab-filter", Usage: "TSV word list restricting --sets tokens"},
			&cli.BoolFlag{Name: "no-catalog", Usage: "do not commit a catalog"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("build: at least one INPUT is required", 2)
			}
			applyBuildFlags(c, rt.cfg)
			if err := rt.cfg.validate(); err != nil {
				return err
			}
			return runBuild(c.Context, rt, c)
		},
	}
}

func applyBuildFlags(c *cli.Context, cfg *Config) {
	s := &cfg.Sketch
	if c.IsSet("num-perm") {
		s.NumPerm = c.Int("num-perm")
	}
	if c.IsSet("seed") {
		seed := c.Int64("seed")
		s.Seed = &seed
	}
	if c.IsSet("random-seed") {
		s.RandomSeed = c.Bool("random-seed")
	}
	if c.IsSet("hash-family") {
		s.HashFamily = c.String("hash-family")
	}
	if c.IsSet("compression") {
		s.Compression = c.String("compression")
	}
	if c.IsSet("header") {
		s.Header = c.Bool("header")
	}
	if c.IsSet("anomaly-policy") {
		s.AnomalyPolicy = c.String("anomaly-policy")
	}
	if c.IsSet("skip-unresolved") {
		s.SkipUnresolved = c.Bool("skip-unresolved")
	}
	if c.IsSet("chunk-size") {
		s.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("keys") {
		cfg.Lookup.KeysTSV = c.String("keys")
		cfg.Lookup.KeysSQLite = nil
	}
	if c.IsSet("vocab") {
		cfg.Lookup.VocabTSV = c.String("vocab")
	}
}

func runBuild(ctx context.Context, rt *runtime, c *cli.Context) error {
	cfg := rt.cfg

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}

	resolver, closeResolver, err := openResolver(ctx, cfg.Lookup)
	if err != nil {
		return err
	}
	defer closeResolver()

	optFns, err := sketcherOptions(cfg, rt.logger, rt.collector())
	if err != nil {
		return err
	}
	if cfg.Lookup.VocabTSV != "" {
		vocab, err := lookup.OpenTSV(cfg.Lookup.VocabTSV, lookup.WithPositional(), lookup.WithHeader(lookup.HeaderPresent))
		if err != nil {
			return err
		}
		optFns = append(optFns, minsketch.WithVocabulary(vocab))
	}
	if path := c.String("vocab-filter"); path != "" {
		words, err := lookup.OpenTSV(path, lookup.WithPositional(), lookup.WithHeader(lookup.HeaderPresent))
		if err != nil {
			return err
		}
		optFns = append(optFns, minsketch.WithVocabularyFilter(words.Values()))
	}

	s, err := minsketch.New(optFns...)
	if err != nil {
		return err
	}

	first := c.Int("first-shard")
	var shards []catalog.Shard
	if c.Bool("sets") {
		shards, err = buildSets(ctx, s, store, cfg, first, c.Args().Slice())
	} else {
		shards, err = buildStreams(ctx, s, store, cfg, first, c.Args().Slice(), resolver)
	}
	if err != nil {
		return err
	}
	if sq, ok := resolver.(*lookup.SQLite); ok && sq.Err() != nil {
		return fmt.Errorf("key lookup: %w", sq.Err())
	}

	for _, sh := range shards {
		fmt.Fprintf(rt.out, "%s\t%d\t%d\n", sh.Name, sh.Records, sh.Bytes)
	}

	if !c.Bool("no-catalog") {
		name, err := catalog.NewStore(store).Commit(ctx, catalog.New(shards...))
		if err != nil {
			return fmt.Errorf("commit catalog: %w", err)
		}
		rt.logger.InfoContext(ctx, "catalog committed", "name", name, "shards", len(shards))
	}
	return nil
}

func sketcherOptions(cfg *Config, logger *minsketch.Logger, metrics minsketch.MetricsCollector) ([]minsketch.Option, error) {
	family, err := minhash.ParseHashFamily(cfg.Sketch.HashFamily)
	if err != nil {
		return nil, err
	}
	compression, err := sketchfile.ParseCompression(cfg.Sketch.Compression)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.anomalyPolicy()
	if err != nil {
		return nil, err
	}

	optFns := []minsketch.Option{
		minsketch.WithLogger(logger),
		minsketch.WithMetrics(metrics),
		minsketch.WithNumPerm(cfg.Sketch.NumPerm),
		minsketch.WithHashFamily(family),
		minsketch.WithAnomalyPolicy(policy),
		minsketch.WithProgressInterval(cfg.Sketch.ProgressInterval),
		minsketch.WithWriterOptions(
			sketchfile.WithCompression(compression),
			sketchfile.WithHeader(cfg.Sketch.Header),
		),
	}
	switch {
	case cfg.Sketch.RandomSeed:
		optFns = append(optFns, minsketch.WithRandomSeed())
	case cfg.Sketch.Seed != nil:
		optFns = append(optFns, minsketch.WithSeed(*cfg.Sketch.Seed))
	}
	if cfg.Sketch.SkipUnresolved {
		optFns = append(optFns, minsketch.WithSkipUnresolved())
	}
	if cfg.Workers > 1 || cfg.Limits.IOBytesPerSec > 0 {
		optFns = append(optFns, minsketch.WithResourceController(resource.NewController(resource.Config{
			MaxWorkers:         int64(cfg.Workers),
			IOLimitBytesPerSec: cfg.Limits.IOBytesPerSec,
		})))
	}
	return optFns, nil
}

func openResolver(ctx context.Context, cfg LookupConfig) (minsketch.Resolver, func(), error) {
	switch {
	case cfg.KeysTSV != "":
		m, err := lookup.OpenTSV(cfg.KeysTSV)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	case cfg.KeysSQLite != nil:
		t := cfg.KeysSQLite
		sq, err := lookup.OpenSQLite(ctx, t.Path, lookup.SQLiteConfig{
			Table:       t.Table,
			KeyColumn:   t.KeyColumn,
			ValueColumn: t.ValueColumn,
		})
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { _ = sq.Close() }, nil
	default:
		return minsketch.DecimalKeys, func() {}, nil
	}
}

func buildStreams(ctx context.Context, s *minsketch.Sketcher, store blobstore.BlobStore, cfg *Config, first int, inputs []string, resolver minsketch.Resolver) ([]catalog.Shard, error) {
	jobs := make([]minsketch.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = minsketch.Job{
			Shard:    first + i,
			Chunks:   entryChunks(in, cfg.Sketch.ChunkSize),
			Resolver: resolver,
		}
	}

	results, err := s.RunAll(ctx, store, jobs, cfg.Workers)
	if err != nil {
		return nil, err
	}

	shards := make([]catalog.Shard, len(results))
	for i, r := range results {
		shards[i] = r.CatalogShard()
	}
	return shards, nil
}

func buildSets(ctx context.Context, s *minsketch.Sketcher, store blobstore.BlobStore, cfg *Config, first int, inputs []string) ([]catalog.Shard, error) {
	compression, err := sketchfile.ParseCompression(cfg.Sketch.Compression)
	if err != nil {
		return nil, err
	}

	shards := make([]catalog.Shard, 0, len(inputs))
	for i, in := range inputs {
		name := minsketch.ShardName(first + i)
		w, err := sketchfile.CreateBlob(ctx, store, name,
			sketchfile.WithBuilder(s.Builder()),
			sketchfile.WithCompression(compression),
			sketchfile.WithHeader(cfg.Sketch.Header),
		)
		if err != nil {
			return nil, err
		}

		var readErr error
		stats, err := s.SketchSets(ctx, setPairs(in, &readErr), w)
		if err == nil {
			err = readErr
		}
		if err != nil {
			_ = w.Abort()
		} else {
			err = w.Close()
		}
		if err != nil {
			_ = store.Delete(context.WithoutCancel(ctx), name)
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		h := w.Header()
		shards = append(shards, catalog.Shard{
			Name:       name,
			NumPerm:    h.NumPerm,
			Seed:       h.Seed,
			SeedPolicy: h.SeedPolicy,
			Family:     h.Family,
			Records:    int64(stats.Written),
			Bytes:      w.Bytes(),
		})
	}
	return shards, nil
}
