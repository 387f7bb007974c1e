package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCUE(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "functions.cue", `package specs

function: expTanh: {ops: ["tanh", "exp"], example: 1.0}
`)
	writeCUE(t, dir, "inverses.cue", `package specs

inverse: square: "sqrt"
`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"expTanh"}, m.Names())
	assert.Len(t, m.Inverses, 1)
}

func TestLoad_SelectedFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `package specs

function: a: ops: ["exp"]
`)
	writeCUE(t, dir, "b.cue", `package specs

function: b: ops: ["log"]
`)

	m, err := Load(dir, "b.cue")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, m.Names())
}

func TestLoad_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "broken.cue", `package specs

function: f: {
`)

	_, err := LoadInstance(dir)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, FieldLoad, ce.Field)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.cue")
	require.Error(t, err)
}

func TestLoad_CompileError(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `package specs

function: f: ops: ["frobnicate"]
`)

	_, err := Load(dir)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "function.f.ops[0].op", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad.cue")
}
