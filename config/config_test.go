package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	return Load(fs, args)
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := load(t)
	require.NoError(t, err)

	assert.False(t, cfg.IsClient())
	assert.Equal(t, 4114, cfg.HostPort)
	assert.Equal(t, 4004, cfg.Client)
	assert.Equal(t, 120, cfg.TickRate)
	assert.Equal(t, 120, cfg.Heartbeat)
	assert.Equal(t, 0, cfg.Probe)
	assert.Equal(t, time.Duration(0), cfg.Handshake)
	assert.Equal(t, ":8080", cfg.AdminAddr)
	assert.Equal(t, 4, cfg.Spectate)
	assert.Equal(t, "herosync.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:4114", cfg.ListenAddr())
	assert.Equal(t, time.Second/120, cfg.TickInterval())
}

func TestLoad_HostArgumentSelectsClient(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := load(t, "example.org")
	require.NoError(t, err)

	assert.True(t, cfg.IsClient())
	assert.Equal(t, "0.0.0.0:4004", cfg.ListenAddr())
	assert.Equal(t, "example.org:4114", cfg.HostAddr())
}

func TestHostAddrBracketsIPv6(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := load(t, "::1")
	require.NoError(t, err)
	assert.Equal(t, "[::1]:4114", cfg.HostAddr())
}

func TestLoad_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := `{
		"tick": { "rate": 60 },
		"heartbeat": { "ticks": 30 },
		"log": { "level": "debug" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "herosync.json"), []byte(cfg), 0644))

	got, err := load(t, "--heartbeat.ticks=45", "--handshake.timeout=3s")
	require.NoError(t, err)

	assert.Equal(t, 60, got.TickRate)
	assert.Equal(t, 45, got.Heartbeat)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, 3*time.Second, got.Handshake)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HEROSYNC_HOST_PORT", "5000")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.HostPort)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := load(t, "--config", "/nonexistent/herosync.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := load(t, "--tick.rate=0")
	assert.Error(t, err)

	_, err = load(t, "--host.port=70000")
	assert.Error(t, err)
}
