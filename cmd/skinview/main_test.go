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

const armGLTF = `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Armature", "children": [1, 3]},
    {"name": "hip", "children": [2]},
    {"name": "spine"},
    {"name": "Body", "mesh": 0, "skin": 0}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "skins": [{"joints": [1, 2]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 1, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 12}],
  "buffers": [{"uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAA", "byteLength": 12}]
}`

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arm.gltf")
	require.NoError(t, os.WriteFile(path, []byte(armGLTF), 0o644))
	return path
}

func TestRunHeadlessDump(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-headless", "-model", writeModel(t), "-frames", "3", "-dump"}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0 hip [1 0 0 0"))
	assert.True(t, strings.HasPrefix(lines[1], "1 spine "))
}

func TestRunHeadlessSpin(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-headless", "-model", writeModel(t), "-frames", "10", "-spin", "-dump"}, &out)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out.String(), "0 hip [1 0 0 0"))
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "skinview.toml")
	content := "[model]\npath = \"" + filepath.ToSlash(writeModel(t)) + "\"\n\n[render]\nheadless = true\ninstances = 4\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-config", cfgPath, "-dump"}, &out))
	assert.Contains(t, out.String(), "spine")
}

func TestRunPrintConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-print-config"}, &out))
	assert.Contains(t, out.String(), "[limits]")
	assert.Contains(t, out.String(), "max_bones")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no model", []string{"-headless"}},
		{"missing model file", []string{"-headless", "-model", filepath.Join(t.TempDir(), "none.gltf")}},
		{"negative frames", []string{"-headless", "-frames", "-1"}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "none.toml")}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run(tt.args, &out))
		})
	}
}
