package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// missingConfig returns a config path that does not exist, so tests
// never pick up a real config file from the default search path.
func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingConfig(t))
	require.NoError(t, err)

	require.Equal(t, DefaultPIDFile, cfg.PIDFile)
	require.Equal(t, DefaultWorkDir, cfg.WorkDir)
	require.Equal(t, DefaultUmask, cfg.Umask)
	require.Equal(t, DefaultIntervalSeconds, cfg.IntervalSeconds)
	require.Equal(t, DefaultVerbose, cfg.Verbose)
	require.Equal(t, DefaultStopTimeoutSeconds, cfg.StopTimeoutSeconds)
	require.Equal(t, DefaultLogFile(), cfg.LogFile)
	require.Equal(t, DefaultJournalPath(), cfg.JournalPath)
	require.True(t, cfg.Output.Color)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	raw := `pid_file: /tmp/worker.pid
interval_seconds: 30
verbose: true
umask: 18
output:
  color: false
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(raw), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "/tmp/worker.pid", cfg.PIDFile)
	require.Equal(t, 30, cfg.IntervalSeconds)
	require.True(t, cfg.Verbose)
	require.Equal(t, 18, cfg.Umask)
	require.False(t, cfg.Output.Color)

	// Keys the file does not mention keep their defaults.
	require.Equal(t, DefaultWorkDir, cfg.WorkDir)
	require.Equal(t, DefaultStopTimeoutSeconds, cfg.StopTimeoutSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DAEMONIZE_INTERVAL_SECONDS", "45")
	t.Setenv("DAEMONIZE_PID_FILE", "/tmp/env.pid")

	cfg, err := Load(missingConfig(t))
	require.NoError(t, err)

	require.Equal(t, 45, cfg.IntervalSeconds)
	require.Equal(t, "/tmp/env.pid", cfg.PIDFile)
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	raw := "pid_file: ~/run/worker.pid\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(raw), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "run", "worker.pid"), cfg.PIDFile)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("pid_file: [unclosed"), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	require.Equal(t, "/abs/path", expandPath("/abs/path"))
	require.Equal(t, "relative", expandPath("relative"))
}
