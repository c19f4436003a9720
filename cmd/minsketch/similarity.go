package main

import (
	"fmt"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/sketchfile"
)

func similarityCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "similarity",
		Usage:     "estimate the Jaccard similarity of documents pairwise",
		ArgsUsage: "ID ID [ID...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "sketch file to search (default: all catalog shards)"},
			strictFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("similarity: at least two IDs are required", 2)
			}
			ctx := c.Context
			ids := c.Args().Slice()

			store, err := openStore(ctx, rt.cfg.Store)
			if err != nil {
				return err
			}
			names, err := shardNames(ctx, store, c.StringSlice("file"))
			if err != nil {
				return err
			}
			optFns, err := readerOptions(c, rt)
			if err != nil {
				return err
			}

			want := func(id string) bool { return slices.Contains(ids, id) }
			found := make(map[string]minhash.Signature, len(ids))
			for _, name := range names {
				r, err := sketchfile.OpenBlob(ctx, store, name, append(optFns, sketchfile.WithFilter(want))...)
				if err != nil {
					return err
				}
				for rec, err := range r.Records() {
					if err != nil {
						_ = r.Close()
						return fmt.Errorf("%s: %w", name, err)
					}
					if _, dup := found[rec.ID]; !dup {
						found[rec.ID] = rec.Signature.Clone()
					}
				}
				if err := r.Close(); err != nil {
					return err
				}
				if len(found) == len(ids) {
					break
				}
			}

			for _, id := range ids {
				if _, ok := found[id]; !ok {
					return fmt.Errorf("similarity: id %q not found", id)
				}
			}

			for i, a := range ids {
				for _, b := range ids[i+1:] {
					j, err := found[a].Jaccard(found[b])
					if err != nil {
						return fmt.Errorf("similarity: %s vs %s: %w", a, b, err)
					}
					fmt.Fprintf(rt.out, "%s\t%s\t%.4f\n", a, b, j)
				}
			}
			return nil
		},
	}
}
