package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout, stderr string
	err            error
}

func runCLI(t *testing.T, stdin []byte, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, bytes.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const boundedSchema = `{"type": "integer", "minimum": 0, "maximum": 100}`

func TestUsage(t *testing.T) {
	res := runCLI(t, nil)
	assert.ErrorIs(t, res.err, errUsage)
	assert.Contains(t, res.stderr, "canonicalize")

	res = runCLI(t, nil, "frobnicate")
	assert.ErrorIs(t, res.err, errUsage)
	assert.Contains(t, res.stderr, `unknown command "frobnicate"`)

	res = runCLI(t, nil, "help")
	require.NoError(t, res.err)
	for name := range commands {
		assert.Contains(t, res.stdout, name)
	}
}

func TestCommandHelp(t *testing.T) {
	res := runCLI(t, nil, "encode", "--help")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "--schema")
	assert.Contains(t, res.stdout, "--compress")

	res = runCLI(t, nil, "compile", "--no-such-flag")
	assert.ErrorIs(t, res.err, errUsage)
	assert.Contains(t, res.stderr, "no-such-flag")
}

func TestCanonicalizeFromStdin(t *testing.T) {
	res := runCLI(t, []byte(`{"type": "null"}`), "canonicalize", "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"enum": [`)
	assert.Contains(t, res.stdout, "null")
	assert.NotContains(t, res.stdout, `"type"`)
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", boundedSchema)

	res := runCLI(t, nil, "compile", schema)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"BOUNDED_MULTIPLE_8BITS_ENUM_FIXED"`)

	out := filepath.Join(dir, "plan.json")
	res = runCLI(t, nil, "compile", "-o", out, schema)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maximum": 100`)

	res = runCLI(t, nil, "compile")
	assert.Error(t, res.err)
}

func TestEncodeDecode(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", boundedSchema)
	a := writeFile(t, dir, "a.json", `50`)
	b := writeFile(t, dir, "b.json", `7`)

	res := runCLI(t, nil, "encode", "--schema", schema, a, b)
	require.NoError(t, res.err)
	assert.Equal(t, []byte{50, 7}, []byte(res.stdout))

	res = runCLI(t, []byte(res.stdout), "decode", "--schema", schema)
	require.NoError(t, res.err)
	assert.Equal(t, "50\n7\n", res.stdout)
}

func TestEncodeDecodeWithPlan(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"type": "array", "items": {"type": "string"}}`)
	plan := filepath.Join(dir, "plan.json")
	require.NoError(t, runCLI(t, nil, "compile", "-o", plan, schema).err)

	doc := writeFile(t, dir, "doc.json", `["go", "go", "gopher"]`)
	bin := filepath.Join(dir, "doc.bin")
	res := runCLI(t, nil, "encode", "--plan", plan, "--compress", "-o", bin, doc)
	require.NoError(t, res.err)

	raw, err := os.ReadFile(bin)
	require.NoError(t, err)
	_, err = decompress(raw)
	require.NoError(t, err, "stream is not a zstd frame")

	res = runCLI(t, nil, "decode", "--plan", plan, "--compress", bin)
	require.NoError(t, res.err)
	assert.Equal(t, `["go","go","gopher"]`+"\n", res.stdout)

	res = runCLI(t, nil, "decode", "--plan", plan, bin)
	assert.Error(t, res.err, "compressed stream decoded as plain")
}

func TestPlanSourceIsRequired(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", `1`)

	res := runCLI(t, nil, "encode", doc)
	assert.ErrorIs(t, res.err, errPlanSource)

	res = runCLI(t, nil, "encode", "--schema", doc, "--plan", doc, doc)
	assert.ErrorIs(t, res.err, errPlanSource)
}

func TestDecodeEmptyStream(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"enum": ["only"]}`)

	res := runCLI(t, nil, "decode", "--schema", schema)
	require.NoError(t, res.err)
	assert.Equal(t, `"only"`+"\n", res.stdout)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json",
		`{"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 10}}`)
	bin := writeFile(t, dir, "docs.bin", string([]byte{2, 1, 2, 0}))

	res := runCLI(t, nil, "inspect", "--schema", schema, bin)
	require.NoError(t, res.err)
	lines := strings.Split(res.stdout, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "FLOOR_TYPED_ARRAY"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  items: BOUNDED_MULTIPLE_8BITS_ENUM_FIXED"), lines[1])
	assert.Contains(t, res.stdout, "documents: 2\nbytes: 4\n")
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", boundedSchema)

	t.Setenv("JSONBINPACK_LOG_FORMAT", "xml")
	res := runCLI(t, nil, "compile", schema)
	assert.ErrorContains(t, res.err, `unknown log format "xml"`)

	// Flags win over the environment.
	res = runCLI(t, nil, "compile", "--log-format", "json", schema)
	assert.NoError(t, res.err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"type": "string"}`)
	doc := writeFile(t, dir, "doc.json", `"repeat"`)

	res := runCLI(t, nil, "encode", "--schema", schema, doc, doc)
	require.NoError(t, res.err)
	shared := res.stdout

	config := writeFile(t, dir, "config.yaml", "cache-size: 1\nlog-level: info\n")
	res = runCLI(t, nil, "encode", "--config", config, "--schema", schema, doc, doc)
	require.NoError(t, res.err)
	assert.Equal(t, string([]byte{7, 'r', 'e', 'p', 'e', 'a', 't', 7, 'r', 'e', 'p', 'e', 'a', 't'}), res.stdout)
	assert.Less(t, len(shared), len(res.stdout))
	assert.Contains(t, res.stderr, "encoded")

	res = runCLI(t, nil, "encode", "--config", filepath.Join(dir, "missing.yaml"), "--schema", schema, doc)
	assert.Error(t, res.err)
}
