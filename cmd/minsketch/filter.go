package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch/sketchfile"
)

func filterCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "copy the records whose id is listed into a new file",
		ArgsUsage: "SRC DST",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ids", Required: true, Usage: "file with one id per line"},
			&cli.BoolFlag{Name: "exclude", Usage: "copy the records whose id is not listed"},
			&cli.StringFlag{Name: "compression", Usage: "none, lz4 or zstd (default from config)"},
			strictFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("filter: expected SRC and DST", 2)
			}
			ctx := c.Context
			src, dst := c.Args().Get(0), c.Args().Get(1)

			ids, err := readIDs(c.String("ids"))
			if err != nil {
				return err
			}
			exclude := c.Bool("exclude")
			keep := func(id string) bool {
				_, ok := ids[id]
				return ok != exclude
			}

			compName := rt.cfg.Sketch.Compression
			if c.IsSet("compression") {
				compName = c.String("compression")
			}
			compression, err := sketchfile.ParseCompression(compName)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, rt.cfg.Store)
			if err != nil {
				return err
			}
			optFns, err := readerOptions(c, rt)
			if err != nil {
				return err
			}

			r, err := sketchfile.OpenBlob(ctx, store, src, append(optFns, sketchfile.WithFilter(keep))...)
			if err != nil {
				return err
			}
			defer r.Close()

			wopts := []sketchfile.Option{
				sketchfile.WithCompression(compression),
				sketchfile.WithHeader(r.HasHeader()),
				sketchfile.WithLogger(rt.logger.Logger),
			}
			if r.HasHeader() {
				wopts = append(wopts, sketchfile.WithFileHeader(r.Header()))
			}
			w, err := sketchfile.CreateBlob(ctx, store, dst, wopts...)
			if err != nil {
				return err
			}

			n, err := sketchfile.Copy(w, r)
			if err != nil {
				_ = w.Abort()
			} else {
				err = w.Close()
			}
			if err != nil {
				_ = store.Delete(ctx, dst)
				return err
			}

			rt.collector().RecordBytesWritten(w.Bytes())
			fmt.Fprintf(rt.out, "%s\t%d\n", dst, n)
			return nil
		},
	}
}
