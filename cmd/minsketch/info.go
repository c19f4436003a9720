package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch/catalog"
	"github.com/hupe1980/minsketch/sketchfile"
)

func infoCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "describe sketch files, or the current catalog when no NAME is given",
		ArgsUsage: "[NAME...]",
		Flags:     []cli.Flag{strictFlag},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			store, err := openStore(ctx, rt.cfg.Store)
			if err != nil {
				return err
			}

			if c.NArg() == 0 {
				cat, err := catalog.NewStore(store).Load(ctx)
				if errors.Is(err, catalog.ErrNotFound) {
					fmt.Fprintln(rt.out, "no catalog")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "generation\t%d\ncreated\t%s\nshards\t%d\nrecords\t%d\n",
					cat.Generation, cat.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), len(cat.Shards), cat.Records())
				for _, s := range cat.Shards {
					fmt.Fprintf(rt.out, "%s\tnum_perm=%d\tseed=%d\tfamily=%s\trecords=%d\tbytes=%d\n",
						s.Name, s.NumPerm, s.Seed, s.Family, s.Records, s.Bytes)
				}
				return cat.Validate()
			}

			optFns, err := readerOptions(c, rt)
			if err != nil {
				return err
			}
			for _, name := range c.Args().Slice() {
				r, err := sketchfile.OpenBlob(ctx, store, name, optFns...)
				if err != nil {
					return err
				}
				for _, err := range r.Raw() {
					if err != nil {
						_ = r.Close()
						return fmt.Errorf("%s: %w", name, err)
					}
				}
				h := r.Header()
				fmt.Fprintf(rt.out, "%s\theader=%t\tnum_perm=%d\tseed=%d\tpolicy=%s\tfamily=%s\trecord_size=%d\trecords=%d\tskipped=%d\tbatches=%d\n",
					name, r.HasHeader(), h.NumPerm, h.Seed, h.SeedPolicy, h.Family, r.RecordSize(), r.Count(), r.Skipped(), r.Batches())
				if err := r.Close(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
