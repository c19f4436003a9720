package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/minsketch/internal/fs"
	"github.com/hupe1980/minsketch/model"
)

type gzipReadCloser struct {
	*gzip.Reader
	f io.Closer
}

func (g gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type bufferedFile struct {
	*bufio.Reader
	io.Closer
}

// openInput opens path, transparently decompressing gzip.
func openInput(path string) (io.ReadCloser, error) {
	f, err := fs.Open(fs.Default, path)
	if err != nil {
		return nil, err
	}
	_ = fs.AdviseSequential(f)

	br := bufio.NewReaderSize(f, 1<<16)
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return gzipReadCloser{Reader: zr, f: f}, nil
	}
	return bufferedFile{Reader: br, Closer: f}, nil
}

// entryChunks streams "key<TAB>token [token...]" lines as chunks of at most
// size entries. Keys must be grouped; repeated keys are merged downstream.
func entryChunks(path string, size int) iter.Seq2[model.Chunk, error] {
	return func(yield func(model.Chunk, error) bool) {
		rc, err := openInput(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rc.Close()

		sc := bufio.NewScanner(rc)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		chunk := make(model.Chunk, 0, size)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimRight(sc.Text(), "\r")
			if text == "" {
				continue
			}
			e, err := parseEntry(text)
			if err != nil {
				yield(nil, fmt.Errorf("%s:%d: %w", path, line, err))
				return
			}
			chunk = append(chunk, e)
			if len(chunk) == size {
				if !yield(chunk, nil) {
					return
				}
				chunk = make(model.Chunk, 0, size)
			}
		}
		if err := sc.Err(); err != nil {
			yield(nil, fmt.Errorf("%s: %w", path, err))
			return
		}
		if len(chunk) > 0 {
			yield(chunk, nil)
		}
	}
}

func parseEntry(text string) (model.Entry, error) {
	keyField, rest, ok := strings.Cut(text, "\t")
	if !ok {
		return model.Entry{}, fmt.Errorf("missing tab")
	}
	key, err := strconv.ParseInt(keyField, 10, 64)
	if err != nil {
		return model.Entry{}, fmt.Errorf("invalid key %q", keyField)
	}

	fields := strings.Fields(rest)
	ids := make([]model.TokenID, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return model.Entry{}, fmt.Errorf("invalid token id %q", f)
		}
		ids = append(ids, model.TokenID(id))
	}
	return model.NewEntry(model.DocumentKey(key), ids...), nil
}

// setPairs streams "id<TAB>token token ..." lines of already grouped sets.
// errp receives the first read or parse error.
func setPairs(path string, errp *error) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		rc, err := openInput(path)
		if err != nil {
			*errp = err
			return
		}
		defer rc.Close()

		sc := bufio.NewScanner(rc)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimRight(sc.Text(), "\r")
			if text == "" {
				continue
			}
			id, rest, ok := strings.Cut(text, "\t")
			if !ok {
				*errp = fmt.Errorf("%s:%d: missing tab", path, line)
				return
			}
			if !yield(id, strings.Fields(rest)) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			*errp = fmt.Errorf("%s: %w", path, err)
		}
	}
}

// readIDs loads one id per line.
func readIDs(path string) (map[string]struct{}, error) {
	rc, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ids := make(map[string]struct{})
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, sc.Err()
}
