package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/catalog"
	"github.com/hupe1980/minsketch/resource"
	"github.com/hupe1980/minsketch/sketchfile"
)

var strictFlag = &cli.BoolFlag{Name: "strict", Usage: "fail on a trailing partial record"}

func readerOptions(c *cli.Context, rt *runtime) ([]sketchfile.Option, error) {
	trailing, err := rt.cfg.trailingPolicy()
	if err != nil {
		return nil, err
	}
	if c.Bool("strict") {
		trailing = sketchfile.TrailingStrict
	}

	optFns := []sketchfile.Option{
		sketchfile.WithLogger(rt.logger.Logger),
		sketchfile.WithTrailingPolicy(trailing),
		sketchfile.WithReadMetrics(rt.collector()),
	}
	if n := rt.cfg.Limits.ReadBatchSize; n > 0 {
		optFns = append(optFns, sketchfile.WithBatchSize(n))
	}
	if n := rt.cfg.Limits.MemoryBytes; n > 0 {
		optFns = append(optFns, sketchfile.WithMemoryLimit(resource.NewController(resource.Config{MemoryLimitBytes: n})))
	}
	return optFns, nil
}

// shardNames returns names, or every shard of the current catalog.
func shardNames(ctx context.Context, store blobstore.BlobStore, names []string) ([]string, error) {
	if len(names) > 0 {
		return names, nil
	}
	cat, err := catalog.NewStore(store).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("no files given and %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	out := make([]string, len(cat.Shards))
	for i, s := range cat.Shards {
		out[i] = s.Name
	}
	return out, nil
}
