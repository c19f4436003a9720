package minsketch_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/minsketch"
	"github.com/hupe1980/minsketch/group"
	"github.com/hupe1980/minsketch/model"
	"github.com/hupe1980/minsketch/sketchfile"
)

// Example_run sketches a grouped token stream into an in-memory file.
func Example_run() {
	s, err := minsketch.New(minsketch.WithNumPerm(64), minsketch.WithSeed(1))
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	w, err := sketchfile.NewWriter(&buf, sketchfile.WithBuilder(s.Builder()))
	if err != nil {
		log.Fatal(err)
	}

	// Key 1 is split across two chunks and still yields one record.
	chunks := group.Chunks(
		model.Chunk{model.NewEntry(1, 10, 11)},
		model.Chunk{model.NewEntry(1, 12), model.NewEntry(2, 10, 11, 12)},
	)
	stats, err := s.Run(context.Background(), chunks, minsketch.DecimalKeys, w)
	if err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := sketchfile.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	var sigs []sketchfile.Record
	for rec, err := range r.Records() {
		if err != nil {
			log.Fatal(err)
		}
		sigs = append(sigs, rec)
	}

	j, _ := sigs[0].Signature.Jaccard(sigs[1].Signature)
	fmt.Println(stats.Written, sigs[0].ID, sigs[1].ID, j)
	// Output: 2 1 2 1
}

// Example_sketchSets hashes already grouped string sets.
func Example_sketchSets() {
	s, err := minsketch.New(minsketch.WithNumPerm(32))
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	w, err := sketchfile.NewWriter(&buf, sketchfile.WithBuilder(s.Builder()))
	if err != nil {
		log.Fatal(err)
	}

	sets := func(yield func(string, []string) bool) {
		_ = yield("greeting", []string{"hello", "world"})
	}
	stats, err := s.SketchSets(context.Background(), sets, w)
	if err != nil {
		log.Fatal(err)
	}
	_ = w.Close()

	fmt.Println(stats.Written, buf.Len())
	// Output: 1 170
}
