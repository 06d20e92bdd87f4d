package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/daemonize/internal/daemon"
)

// newLifecycleCommand builds a throwaway command carrying the lifecycle
// flags, parsed from args. Flag state is package-global, so the
// registration also resets every flag to its default.
func newLifecycleCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	registerLifecycleFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return cmd
}

// withMissingConfig points the global --config flag at a path that does
// not exist, so tests never pick up a real config file.
func withMissingConfig(t *testing.T) {
	t.Helper()
	old := flagConfig
	flagConfig = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { flagConfig = old })
}

func TestBuildDaemonConfig_Defaults(t *testing.T) {
	withMissingConfig(t)
	cmd := newLifecycleCommand(t)

	dcfg, _, err := buildDaemonConfig(cmd, "./worker.sh")
	if err != nil {
		t.Fatalf("buildDaemonConfig: %v", err)
	}

	if dcfg.Process != "./worker.sh" {
		t.Errorf("Process = %q, want ./worker.sh", dcfg.Process)
	}
	if dcfg.PIDFile != "/daemon.pid" {
		t.Errorf("PIDFile = %q, want /daemon.pid", dcfg.PIDFile)
	}
	if dcfg.WorkDir != "/" {
		t.Errorf("WorkDir = %q, want /", dcfg.WorkDir)
	}
	if dcfg.Umask != 0 {
		t.Errorf("Umask = %d, want 0", dcfg.Umask)
	}
	if dcfg.Interval != 300*time.Second {
		t.Errorf("Interval = %s, want 5m0s", dcfg.Interval)
	}
	if dcfg.Verbose {
		t.Error("Verbose = true, want false")
	}
	if dcfg.StopTimeout != 0 {
		t.Errorf("StopTimeout = %s, want 0", dcfg.StopTimeout)
	}
}

func TestBuildDaemonConfig_FlagsOverride(t *testing.T) {
	withMissingConfig(t)
	cmd := newLifecycleCommand(t,
		"--interval", "60",
		"--verbose", "true",
		"--path", "/tmp",
		"--umask", "18",
		"--pid-file", "/tmp/worker.pid",
		"--stop-timeout", "5s",
	)

	dcfg, _, err := buildDaemonConfig(cmd, "./worker.sh")
	if err != nil {
		t.Fatalf("buildDaemonConfig: %v", err)
	}

	if dcfg.Interval != 60*time.Second {
		t.Errorf("Interval = %s, want 1m0s", dcfg.Interval)
	}
	if !dcfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if dcfg.WorkDir != "/tmp" {
		t.Errorf("WorkDir = %q, want /tmp", dcfg.WorkDir)
	}
	if dcfg.Umask != 18 {
		t.Errorf("Umask = %d, want 18", dcfg.Umask)
	}
	if dcfg.PIDFile != "/tmp/worker.pid" {
		t.Errorf("PIDFile = %q, want /tmp/worker.pid", dcfg.PIDFile)
	}
	if dcfg.StopTimeout != 5*time.Second {
		t.Errorf("StopTimeout = %s, want 5s", dcfg.StopTimeout)
	}
}

func TestBuildDaemonConfig_ConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	raw := `pid_file: /tmp/from-config.pid
interval_seconds: 45
`
	if err := os.WriteFile(cfgPath, []byte(raw), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	old := flagConfig
	flagConfig = cfgPath
	t.Cleanup(func() { flagConfig = old })

	// No flags set: config file values win over defaults.
	cmd := newLifecycleCommand(t)
	dcfg, _, err := buildDaemonConfig(cmd, "./worker.sh")
	if err != nil {
		t.Fatalf("buildDaemonConfig: %v", err)
	}
	if dcfg.PIDFile != "/tmp/from-config.pid" {
		t.Errorf("PIDFile = %q, want /tmp/from-config.pid", dcfg.PIDFile)
	}
	if dcfg.Interval != 45*time.Second {
		t.Errorf("Interval = %s, want 45s", dcfg.Interval)
	}

	// Explicit flag wins over the config file.
	cmd = newLifecycleCommand(t, "--interval", "10")
	dcfg, _, err = buildDaemonConfig(cmd, "./worker.sh")
	if err != nil {
		t.Fatalf("buildDaemonConfig: %v", err)
	}
	if dcfg.Interval != 10*time.Second {
		t.Errorf("Interval = %s, want 10s", dcfg.Interval)
	}
	if dcfg.PIDFile != "/tmp/from-config.pid" {
		t.Errorf("PIDFile = %q, want /tmp/from-config.pid", dcfg.PIDFile)
	}
}

func TestBuildDaemonConfig_InvalidVerbose(t *testing.T) {
	withMissingConfig(t)
	cmd := newLifecycleCommand(t, "--verbose", "maybe")

	_, _, err := buildDaemonConfig(cmd, "./worker.sh")
	if err == nil {
		t.Fatal("expected error for --verbose maybe")
	}
	if !strings.Contains(err.Error(), "--verbose") {
		t.Errorf("error %q does not mention --verbose", err)
	}
}

func TestRunLifecycle_UnknownAction(t *testing.T) {
	err := runLifecycle(rootCmd, []string{"./worker.sh", "bounce"})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
	if !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("error %q does not mention unknown action", err)
	}
}

func TestStopOutcomeName(t *testing.T) {
	tests := []struct {
		outcome daemon.StopOutcome
		want    string
	}{
		{daemon.StopNotRunning, "not-running"},
		{daemon.StopStale, "stale-cleared"},
		{daemon.StopSignaled, "stopped"},
	}
	for _, tc := range tests {
		if got := stopOutcomeName(tc.outcome); got != tc.want {
			t.Errorf("stopOutcomeName(%d) = %q, want %q", tc.outcome, got, tc.want)
		}
	}
}
