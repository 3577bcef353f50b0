package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/vfxgo/examples/tint"
	"github.com/justyntemme/vfxgo/pkg/host"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPlugins(t *testing.T) {
	out, _, err := execute(t, "plugins")
	require.NoError(t, err)
	assert.Contains(t, out, tint.CanonicalName)
	assert.Contains(t, out, "0.2.0")
}

func TestDescribe(t *testing.T) {
	out, _, err := execute(t, "describe")
	require.NoError(t, err)

	var d host.Description
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, tint.CanonicalName, d.Plugin.CanonicalName)
	assert.Equal(t, "effect", d.Plugin.Kind)
	require.Len(t, d.Params, 6)
	assert.Equal(t, "Mode", d.Params[tint.ParamMode].Name)
	assert.Equal(t, "Tint", d.Params[tint.ParamMode].Display)
	require.Len(t, d.Shaders, 2)
	assert.Equal(t, tint.ProgramName, d.Shaders[1].Name)
	assert.False(t, d.Shaders[1].Failed)
}

func TestDescribeJSON(t *testing.T) {
	out, _, err := execute(t, "describe", "-o", "json")
	require.NoError(t, err)

	var d host.Description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, tint.CanonicalName, d.Plugin.CanonicalName)

	_, _, err = execute(t, "describe", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestUnknownPlugin(t *testing.T) {
	_, _, err := execute(t, "describe", "--plugin", "acme-missing")
	assert.ErrorContains(t, err, "unknown plugin")
}

func TestRun(t *testing.T) {
	out, _, err := execute(t, "run", "--frames", "50", "--fps", "50", "--set", "Red=80", "--set", "Mode=2")
	require.NoError(t, err)
	assert.Contains(t, out, tint.CanonicalName+": 50 frames, 0 bypassed")
	assert.Contains(t, out, "Frame Stats:")
	assert.Contains(t, out, "Budget:  20ms")
	assert.Contains(t, out, "Process:\n  Count:   50")
}

func TestRunWithTone(t *testing.T) {
	out, _, err := execute(t, "run", "--frames", "10", "--tone", "100", "--set", "Mode=2")
	require.NoError(t, err)
	assert.Contains(t, out, "10 frames, 0 bypassed")
	assert.Contains(t, out, "10 with audio triggers")
}

func TestRunChain(t *testing.T) {
	out, _, err := execute(t, "run", "--frames", "5", "--chain", "3", "--set", "Red=80")
	require.NoError(t, err)
	assert.Contains(t, out, tint.CanonicalName+" x3: 5 frames, 0 bypassed")
	assert.Contains(t, out, "Process:\n  Count:   5")

	_, _, err = execute(t, "run", "--chain", "9")
	assert.ErrorContains(t, err, "--chain")
}

func TestRunRejects(t *testing.T) {
	_, _, err := execute(t, "run", "--frames", "0")
	assert.Error(t, err)

	_, _, err = execute(t, "run", "--fps", "-1")
	assert.Error(t, err)

	_, _, err = execute(t, "run", "--set", "Nope=1")
	assert.ErrorContains(t, err, `no parameter named "Nope"`)
}

func TestRunWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fxhost.toml")
	require.NoError(t, os.WriteFile(path, []byte("seed = 42\n[render]\nfps = 50\n"), 0o644))

	out, _, err := execute(t, "--config", path, "run", "--frames", "5", "--randomize")
	require.NoError(t, err)
	assert.Contains(t, out, "Budget:  20ms")
}

func TestRunTelemetry(t *testing.T) {
	_, errOut, err := execute(t, "run", "--frames", "3", "--telemetry")
	require.NoError(t, err)
	assert.Contains(t, errOut, "vfx/Process")
	assert.Contains(t, errOut, "vfx.calls")
}

func TestPresets(t *testing.T) {
	db := filepath.Join(t.TempDir(), "presets.db")

	out, _, err := execute(t, "preset", "save", "warm", "--db", db, "--set", "Red=64")
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+tint.CanonicalName+"/warm")

	out, _, err = execute(t, "preset", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "warm")
	assert.Contains(t, out, "zstd")

	out, _, err = execute(t, "preset", "load", "warm", "--db", db)
	require.NoError(t, err)
	var d host.Description
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, int64(64), d.Params[tint.ParamRed].Current)

	_, _, err = execute(t, "preset", "load", "cold", "--db", db)
	assert.Error(t, err)

	out, _, err = execute(t, "preset", "delete", "warm", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted warm")

	out, _, err = execute(t, "preset", "list", "--db", db, "--all")
	require.NoError(t, err)
	assert.NotContains(t, out, "warm")
}
