package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setUp(t *testing.T) string {
	t.Helper()
	t.Setenv("AMQP_HOST", "")
	t.Setenv("MAX_IMAGE_DIMENSION", "0")
	t.Setenv("LOG_LEVEL", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fern.jpg"), []byte("fern bytes"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.png"), nil, 0o600))
	return dir
}

func TestRunDetailed(t *testing.T) {
	dir := setUp(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-stub", filepath.Join(dir, "fern.jpg")}, nil, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "Google Vision API Results:\n--------------------------\n- "))
	assert.Contains(t, stdout.String(), "% score)")
}

func TestRunCompactJSON(t *testing.T) {
	dir := setUp(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-stub", "-compact", "-json", "-max-results", "1", filepath.Join(dir, "fern.jpg")}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got imageResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Len(t, got.Labels, 1)
	require.Len(t, got.Lines, 1)
	assert.True(t, strings.HasSuffix(got.Lines[0], "%)"))
	assert.Empty(t, got.Error)
}

func TestRunFailureExitsNonZero(t *testing.T) {
	dir := setUp(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-stub",
		filepath.Join(dir, "fern.jpg"),
		filepath.Join(dir, "empty.png"),
		filepath.Join(dir, "missing.gif"),
	}, nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "== "+filepath.Join(dir, "fern.jpg")+" ==")
	assert.Contains(t, stderr.String(), "Error analyzing image: Bad image data.")
	assert.Contains(t, stderr.String(), "An error occurred with the Google Vision API: ")
}

func TestRunJSONError(t *testing.T) {
	dir := setUp(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-stub", "-json", filepath.Join(dir, "empty.png")}, nil, &stdout, &stderr)
	assert.Equal(t, 1, code)

	var got imageResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "service", got.ErrorKind)
	assert.Equal(t, "Bad image data.", got.Error)
	assert.Empty(t, got.Labels)
}

func TestRunStdin(t *testing.T) {
	setUp(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-stub", "-compact", "-"}, strings.NewReader("fern bytes"), &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "Detected Labels:\n\n  • "))
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: annotate")
}
