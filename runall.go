package minsketch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/catalog"
	"github.com/hupe1980/minsketch/model"
	"github.com/hupe1980/minsketch/sketchfile"
)

// ShardName returns the output name of shard n.
func ShardName(n int) string {
	return fmt.Sprintf("hashes.%d.dat", n)
}

// Job is one independent input stream that becomes one sketch file.
type Job struct {
	Shard    int
	Chunks   iter.Seq2[model.Chunk, error]
	Resolver Resolver
}

// ShardResult reports the outcome of one Job.
type ShardResult struct {
	Shard  int
	Name   string
	Stats  Stats
	Header sketchfile.Header
	Bytes  int64
	Err    error
}

// CatalogShard describes the written file for a catalog.
func (r ShardResult) CatalogShard() catalog.Shard {
	return catalog.Shard{
		Name:       r.Name,
		NumPerm:    r.Header.NumPerm,
		Seed:       r.Header.Seed,
		SeedPolicy: r.Header.SeedPolicy,
		Family:     r.Header.Family,
		Records:    int64(r.Stats.Written),
		Bytes:      r.Bytes,
	}
}

// RunAll creates a Sketcher from optFns and runs jobs with it.
func RunAll(ctx context.Context, store blobstore.BlobStore, jobs []Job, limit int, optFns ...Option) ([]ShardResult, error) {
	s, err := New(optFns...)
	if err != nil {
		return nil, err
	}
	return s.RunAll(ctx, store, jobs, limit)
}

// RunAll sketches every job into its own file ShardName(job.Shard) in store,
// running at most limit jobs at once. All shards share one builder, so their
// signatures are comparable. The first failure cancels the remaining jobs;
// the returned error aggregates every shard failure. Failed shards are
// removed from store.
func (s *Sketcher) RunAll(ctx context.Context, store blobstore.BlobStore, jobs []Job, limit int) ([]ShardResult, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	results := make([]ShardResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			results[i] = s.runShard(gctx, store, job)
			return results[i].Err
		})
	}
	waitErr := g.Wait()

	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, r.Err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return results, err
	}
	return results, waitErr
}

func (s *Sketcher) runShard(ctx context.Context, store blobstore.BlobStore, job Job) ShardResult {
	name := ShardName(job.Shard)
	res := ShardResult{Shard: job.Shard, Name: name}
	fail := func(err error) ShardResult {
		res.Err = &ShardError{Shard: job.Shard, Name: name, cause: err}
		return res
	}

	logger := s.opts.logger.WithShard(name).WithNumPerm(s.builder.NumPerm())

	rc := s.opts.resources
	if !rc.TryAcquireWorker() {
		logger.DebugContext(ctx, "waiting for worker slot")
		if err := rc.AcquireWorker(ctx); err != nil {
			return fail(err)
		}
	}
	defer rc.ReleaseWorker()

	wopts := slices.Clone(s.opts.writerOptions)
	wopts = append(wopts,
		sketchfile.WithBuilder(s.builder),
		sketchfile.WithLogger(logger.Logger),
	)
	if rc != nil {
		wopts = append(wopts, sketchfile.WithRateLimit(rc))
	}

	w, err := sketchfile.CreateBlob(ctx, store, name, wopts...)
	if err != nil {
		return fail(err)
	}

	res.Stats, err = s.run(ctx, logger, job.Chunks, job.Resolver, w)
	if err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			err = multierror.Append(err, abortErr)
		}
	} else {
		err = w.Close()
	}
	if err != nil {
		if delErr := store.Delete(context.WithoutCancel(ctx), name); delErr != nil && !errors.Is(delErr, blobstore.ErrNotFound) {
			err = multierror.Append(err, delErr)
		}
		return fail(err)
	}

	res.Header = w.Header()
	res.Bytes = w.Bytes()
	s.opts.metrics.RecordBytesWritten(res.Bytes)
	return res
}
