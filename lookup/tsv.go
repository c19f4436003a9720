package lookup

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/minsketch/internal/fs"
)

var gzipMagic = []byte{0x1f, 0x8b}

// ErrDuplicateKey is returned when a keyed table repeats a key.
var ErrDuplicateKey = errors.New("duplicate key")

// HeaderMode tells LoadTSV whether the first line is a header.
type HeaderMode uint8

const (
	// HeaderAuto skips the first line of a keyed table when its key is not
	// an integer. Positional tables are assumed headerless.
	HeaderAuto HeaderMode = iota
	// HeaderPresent always skips the first line.
	HeaderPresent
	// HeaderAbsent never skips the first line.
	HeaderAbsent
)

type tsvOptions struct {
	header      HeaderMode
	positional  bool
	valueColumn int
}

// TSVOption configures LoadTSV.
type TSVOption func(*tsvOptions)

// WithHeader sets how the first line is treated.
func WithHeader(mode HeaderMode) TSVOption {
	return func(o *tsvOptions) {
		o.header = mode
	}
}

// WithPositional keys each row by its position, counting from zero after
// the header.
func WithPositional() TSVOption {
	return func(o *tsvOptions) {
		o.positional = true
	}
}

// WithValueColumn selects the value column. The default is the column after
// the key in keyed tables and the first column in positional tables.
func WithValueColumn(col int) TSVOption {
	return func(o *tsvOptions) {
		o.valueColumn = col
	}
}

// ParseError reports a malformed TSV line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lookup: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// OpenTSV loads the table at path.
func OpenTSV(path string, optFns ...TSVOption) (Map, error) {
	f, err := fs.Open(fs.Default, path)
	if err != nil {
		return nil, fmt.Errorf("lookup: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := LoadTSV(f, optFns...)
	if err != nil {
		return nil, fmt.Errorf("lookup: %s: %w", path, err)
	}
	return m, nil
}

// LoadTSV reads a tab-separated table from r. Gzip input is detected by its
// magic bytes.
func LoadTSV(r io.Reader, optFns ...TSVOption) (Map, error) {
	o := tsvOptions{valueColumn: -1}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.valueColumn < 0 {
		o.valueColumn = 1
		if o.positional {
			o.valueColumn = 0
		}
	}

	br := bufio.NewReader(r)
	if magic, _ := br.Peek(len(gzipMagic)); bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	m := make(Map)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	row := int64(0)
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if line == 1 && o.header == HeaderPresent {
			continue
		}
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")

		if o.positional {
			if o.valueColumn >= len(fields) {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("missing column %d", o.valueColumn)}
			}
			m[row] = fields[o.valueColumn]
			row++
			continue
		}

		key, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			if line == 1 && o.header == HeaderAuto {
				continue
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		if o.valueColumn >= len(fields) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("missing column %d", o.valueColumn)}
		}
		if _, dup := m[key]; dup {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w %d", ErrDuplicateKey, key)}
		}
		m[key] = fields[o.valueColumn]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
