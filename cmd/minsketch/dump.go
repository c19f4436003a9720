package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch/sketchfile"
)

func dumpCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print the records of sketch files",
		ArgsUsage: "[NAME...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "stop after this many records per file (0 = all)"},
			&cli.IntFlag{Name: "hashes", Value: 4, Usage: "hash values printed per record (-1 = all)"},
			&cli.BoolFlag{Name: "ids", Usage: "print ids only"},
			strictFlag,
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			store, err := openStore(ctx, rt.cfg.Store)
			if err != nil {
				return err
			}
			names, err := shardNames(ctx, store, c.Args().Slice())
			if err != nil {
				return err
			}
			optFns, err := readerOptions(c, rt)
			if err != nil {
				return err
			}

			limit := c.Int("limit")
			hashes := c.Int("hashes")
			for _, name := range names {
				r, err := sketchfile.OpenBlob(ctx, store, name, optFns...)
				if err != nil {
					return err
				}

				n := 0
				for rec, err := range r.Records() {
					if err != nil {
						_ = r.Close()
						return fmt.Errorf("%s: %w", name, err)
					}
					if c.Bool("ids") {
						fmt.Fprintln(rt.out, rec.ID)
					} else {
						fmt.Fprintf(rt.out, "%s\t%d\t%s\n", rec.ID, rec.Signature.NumPerm(), formatHashes(rec.Signature.HashValues, hashes))
					}
					n++
					if limit > 0 && n >= limit {
						break
					}
				}
				rt.logger.DebugContext(ctx, "dumped file", "name", name, "records", r.Count(), "skipped", r.Skipped())
				if err := r.Close(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func formatHashes(values []uint32, n int) string {
	if n < 0 || n > len(values) {
		n = len(values)
	}
	parts := make([]string, 0, n+1)
	for _, v := range values[:n] {
		parts = append(parts, strconv.FormatUint(uint64(v), 10))
	}
	if n < len(values) {
		parts = append(parts, "...")
	}
	return strings.Join(parts, " ")
}
