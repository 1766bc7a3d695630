package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iden3/circom-witnesscalc-go/internal/wasmcalc/wasmtest"
	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "witnesscalc-go "+witnesscalc.WrapperVersion())
	assert.Contains(t, out, witnesscalc.UpstreamDir+" "+witnesscalc.UpstreamVersion())
}

func TestCalcRequiresFlags(t *testing.T) {
	_, err := run(t, "calc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestCalcRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "witnesscalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: gpu\n"), 0o600))

	_, err := run(t, "--config", path, "calc", "--inputs", "in.json", "--graph", "g.bin", "--out", "w.wtns")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestCalcWasmInvalidModule(t *testing.T) {
	dir := t.TempDir()
	module := filepath.Join(dir, "witnesscalc.wasm")
	inputs := filepath.Join(dir, "inputs.json")
	graph := filepath.Join(dir, "graph.bin")
	prom := filepath.Join(dir, "witnesscalc.prom")
	require.NoError(t, os.WriteFile(module, []byte("not wasm"), 0o600))
	require.NoError(t, os.WriteFile(inputs, []byte(`{"a":"1"}`), 0o600))
	require.NoError(t, os.WriteFile(graph, []byte{1, 2, 3}, 0o600))

	t.Setenv("WITNESSCALC_BACKEND", "wasm")
	t.Setenv("WITNESSCALC_WASM_MODULE_PATH", module)
	t.Setenv("WITNESSCALC_METRICS_TEXTFILE", prom)

	_, err := run(t, "--log-level", "error", "calc", "--inputs", inputs, "--graph", graph, "--out", filepath.Join(dir, "w.wtns"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "w.wtns"))
	// Open failed, so no metrics were produced.
	assert.NoFileExists(t, prom)
}

func TestCalcWritesWitnessAndMetrics(t *testing.T) {
	dir := t.TempDir()
	module := filepath.Join(dir, "witnesscalc.wasm")
	inputs := filepath.Join(dir, "inputs.json")
	graph := filepath.Join(dir, "graph.bin")
	out := filepath.Join(dir, "w.wtns")
	prom := filepath.Join(dir, "witnesscalc.prom")
	require.NoError(t, os.WriteFile(module, wasmtest.Echo(), 0o600))
	require.NoError(t, os.WriteFile(inputs, []byte(`{"a":"1"}`), 0o600))
	require.NoError(t, os.WriteFile(graph, []byte("compiled graph"), 0o600))

	cfgPath := filepath.Join(dir, "witnesscalc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
backend: wasm
wasm:
  module_path: `+module+`
  memory_pages: 64
metrics:
  textfile: `+prom+`
`), 0o600))

	_, err := run(t, "--config", cfgPath, "--log-level", "error", "calc", "--inputs", inputs, "--graph", graph, "--out", out)
	require.NoError(t, err)

	witness, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("compiled graph"), witness)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `witnesscalc_calls_total{outcome="ok"} 1`)
	assert.Contains(t, string(metrics), "witnesscalc_witness_bytes_sum 14")
}

func TestWriteWitnessWipesBuffer(t *testing.T) {
	dir := t.TempDir()
	witness := []byte("private signals")

	require.NoError(t, writeWitness(filepath.Join(dir, "w.wtns"), witness))
	assert.Equal(t, make([]byte, len(witness)), witness)

	stored, err := os.ReadFile(filepath.Join(dir, "w.wtns"))
	require.NoError(t, err)
	assert.Equal(t, []byte("private signals"), stored)

	witness = []byte("private signals")
	require.Error(t, writeWitness(filepath.Join(dir, "missing", "w.wtns"), witness))
	assert.Equal(t, make([]byte, len(witness)), witness)
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, l)
	}
	_, err := newLogger("loud")
	require.Error(t, err)
}
