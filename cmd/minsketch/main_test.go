package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"minsketch", "--log-level", "error"}, args...))
	return stdout.String(), err
}

func TestCLI_BuildDumpInfo(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")

	// Key 1 spans two lines; keys 2 and 3 share tokens with it.
	input := writeFile(t, dir, "tokens.tsv", "1\t1 2\n1\t3\n2\t1 2 3\n3\t7 8\n")
	keys := writeFile(t, dir, "keys.tsv", "index\thtid\n1\tvol.a\n2\tvol.b\n3\tvol.c\n")

	out, err := run(t, "--store", store, "build", "--num-perm", "32", "--seed", "5", "--keys", keys, input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "hashes.0.dat\t3\t"), out)

	out, err = run(t, "--store", store, "dump", "--ids", "hashes.0.dat")
	require.NoError(t, err)
	assert.Equal(t, "vol.a\nvol.b\nvol.c\n", out)

	out, err = run(t, "--store", store, "dump", "--hashes", "2", "--limit", "1")
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(out), "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "vol.a", fields[0])
	assert.Equal(t, "32", fields[1])
	assert.True(t, strings.HasSuffix(fields[2], "..."))

	out, err = run(t, "--store", store, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "generation\t1\n")
	assert.Contains(t, out, "records\t3\n")

	out, err = run(t, "--store", store, "info", "hashes.0.dat")
	require.NoError(t, err)
	assert.Contains(t, out, "header=false")
	assert.Contains(t, out, "num_perm=32")
	assert.Contains(t, out, "seed=5")
	assert.Contains(t, out, "records=3")

	out, err = run(t, "--store", store, "similarity", "vol.a", "vol.b", "vol.c")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "vol.a\tvol.b\t1.0000", lines[0])

	_, err = run(t, "--store", store, "similarity", "vol.a", "vol.x")
	assert.ErrorContains(t, err, "not found")
}

func TestCLI_Filter(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	input := writeFile(t, dir, "tokens.tsv", "1\t1\n2\t2\n3\t3\n")
	ids := writeFile(t, dir, "ids.txt", "2\n3\n")

	_, err := run(t, "--store", store, "build", "--num-perm", "8", "--no-catalog", input)
	require.NoError(t, err)

	out, err := run(t, "--store", store, "filter", "--ids", ids, "--compression", "lz4", "hashes.0.dat", "subset.dat")
	require.NoError(t, err)
	assert.Equal(t, "subset.dat\t2\n", out)

	out, err = run(t, "--store", store, "dump", "--ids", "subset.dat")
	require.NoError(t, err)
	assert.Equal(t, "2\n3\n", out)

	out, err = run(t, "--store", store, "filter", "--ids", ids, "--exclude", "hashes.0.dat", "rest.dat")
	require.NoError(t, err)
	assert.Equal(t, "rest.dat\t1\n", out)

	out, err = run(t, "--store", store, "info")
	require.NoError(t, err)
	assert.Equal(t, "no catalog\n", out)
}

func TestCLI_BuildSets(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	sets := writeFile(t, dir, "sets.tsv", "doc-1\tthe quick fox\ndoc-2\tthe lazy dog\n")
	vocab := writeFile(t, dir, "vocab.tsv", "token\tcount\nquick\t3\nfox\t2\ndog\t1\n")

	out, err := run(t, "--store", store, "build", "--sets", "--first-shard", "4", "--num-perm", "16", "--vocab-filter", vocab, sets)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "hashes.4.dat\t2\t"), out)

	out, err = run(t, "--store", store, "dump", "--ids")
	require.NoError(t, err)
	assert.Equal(t, "doc-1\ndoc-2\n", out)
}

func TestCLI_HeaderOptIn(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	input := writeFile(t, dir, "tokens.tsv", "1\t1 2\n2\t3\n")
	ids := writeFile(t, dir, "ids.txt", "2\n")

	_, err := run(t, "--store", store, "build", "--header", "--hash-family", "xxhash", "--num-perm", "8", "--seed", "3", input)
	require.NoError(t, err)

	out, err := run(t, "--store", store, "info", "hashes.0.dat")
	require.NoError(t, err)
	assert.Contains(t, out, "header=true")
	assert.Contains(t, out, "family=xxhash")
	assert.Contains(t, out, "seed=3")

	_, err = run(t, "--store", store, "filter", "--ids", ids, "hashes.0.dat", "subset.dat")
	require.NoError(t, err)

	out, err = run(t, "--store", store, "info", "subset.dat")
	require.NoError(t, err)
	assert.Contains(t, out, "header=true")
	assert.Contains(t, out, "family=xxhash")
	assert.Contains(t, out, "records=1")
}

func TestCLI_MetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	input := writeFile(t, dir, "tokens.tsv", "1\t1\n2\t2\n3\t3\n")
	buildMetrics := filepath.Join(dir, "build.prom")
	dumpMetrics := filepath.Join(dir, "dump.prom")

	_, err := run(t, "--store", store, "--metrics-textfile", buildMetrics, "build", "--num-perm", "8", input)
	require.NoError(t, err)
	raw, err := os.ReadFile(buildMetrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `minsketch_documents_total{status="success"} 3`)

	_, err = run(t, "--store", store, "--metrics-textfile", dumpMetrics, "dump", "--ids", "hashes.0.dat")
	require.NoError(t, err)
	raw, err = os.ReadFile(dumpMetrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "minsketch_read_records_total 3")
}

func TestCLI_BuildErrors(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")

	_, err := run(t, "--store", store, "build")
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.tsv", "1\tnot-a-number\n")
	_, err = run(t, "--store", store, "build", "--num-perm", "8", bad)
	assert.ErrorContains(t, err, "invalid token id")

	input := writeFile(t, dir, "tokens.tsv", "1\t1\n")
	_, err = run(t, "--store", store, "build", "--hash-family", "md5", input)
	assert.Error(t, err)

	keys := writeFile(t, dir, "keys.tsv", "7\tother\n")
	_, err = run(t, "--store", store, "build", "--keys", keys, input)
	assert.ErrorContains(t, err, "unresolved")

	names, _ := filepath.Glob(filepath.Join(store, "hashes.*"))
	assert.Empty(t, names)
}

func TestParseEntry(t *testing.T) {
	e, err := parseEntry("42\t1 2  3")
	require.NoError(t, err)
	assert.EqualValues(t, 42, e.Key)
	assert.Equal(t, 3, e.Tokens.Len())

	e, err = parseEntry("7\t")
	require.NoError(t, err)
	assert.Equal(t, 0, e.Tokens.Len())

	_, err = parseEntry("no tab")
	assert.Error(t, err)
	_, err = parseEntry("x\t1")
	assert.Error(t, err)
}

func TestFormatHashes(t *testing.T) {
	assert.Equal(t, "1 2 ...", formatHashes([]uint32{1, 2, 3}, 2))
	assert.Equal(t, "1 2 3", formatHashes([]uint32{1, 2, 3}, -1))
	assert.Equal(t, "1 2 3", formatHashes([]uint32{1, 2, 3}, 10))
}
