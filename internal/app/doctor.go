package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/daemonize/internal/config"
	"github.com/blackwell-systems/daemonize/internal/journal"
	"github.com/blackwell-systems/daemonize/internal/output"
	"github.com/blackwell-systems/daemonize/internal/pidfile"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the daemonize setup is healthy",
	Long: `Run a series of health checks against the daemonize configuration and
the environment a daemon would start in. Prints a pass/fail line for
each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var checks []doctorCheck

	// 1. PID file directory: a start must be able to write there.
	checks = append(checks, checkWritableDir("PID file directory", filepath.Dir(cfg.PIDFile), false))

	// 2. Null device: quiet daemons are born with their streams bound to it.
	checks = append(checks, checkNullDevice())

	// 3. Shell: the run loop hands the process descriptor to it each cycle.
	checks = append(checks, checkShell())

	// 4. Log directory: detached daemons can only speak through the log file.
	checks = append(checks, checkWritableDir("Log directory", filepath.Dir(cfg.LogFile), true))

	// 5. Journal: lifecycle events land in the SQLite journal.
	checks = append(checks, checkJournal(cfg.JournalPath))

	// 6. Recorded daemon: what the PID file claims versus what is alive.
	checks = append(checks, checkRecordedDaemon(cfg.PIDFile))

	// Count passes.
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	// Render styled output.
	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkWritableDir verifies that dir exists (creating it first when
// create is set) and that a file can be created inside it.
func checkWritableDir(name, dir string, create bool) doctorCheck {
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return doctorCheck{
				Name:    name,
				Passed:  false,
				Message: fmt.Sprintf("cannot create %s: %v", dir, err),
			}
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not found: %s", dir),
		}
	}
	if !info.IsDir() {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("path exists but is not a directory: %s", dir),
		}
	}

	probe, err := os.CreateTemp(dir, ".daemonize-doctor-*")
	if err != nil {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not writable: %s", dir),
		}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: dir,
	}
}

// checkNullDevice verifies the platform null device opens for both
// reading and writing.
func checkNullDevice() doctorCheck {
	f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return doctorCheck{
			Name:    "Null device",
			Passed:  false,
			Message: fmt.Sprintf("cannot open %s: %v", os.DevNull, err),
		}
	}
	_ = f.Close()
	return doctorCheck{
		Name:    "Null device",
		Passed:  true,
		Message: os.DevNull,
	}
}

// checkShell verifies the shell the run loop executes through is present.
func checkShell() doctorCheck {
	shell := "sh"
	if runtime.GOOS == "windows" {
		shell = "cmd"
	}

	path, err := exec.LookPath(shell)
	if err != nil {
		return doctorCheck{
			Name:    "Shell",
			Passed:  false,
			Message: fmt.Sprintf("%s not found in PATH", shell),
		}
	}
	return doctorCheck{
		Name:    "Shell",
		Passed:  true,
		Message: path,
	}
}

// checkJournal verifies the lifecycle journal opens (creating it on
// first use).
func checkJournal(path string) doctorCheck {
	db, err := journal.Open(path)
	if err != nil {
		return doctorCheck{
			Name:    "Journal",
			Passed:  false,
			Message: fmt.Sprintf("cannot open: %v", err),
		}
	}
	_ = db.Close()
	return doctorCheck{
		Name:    "Journal",
		Passed:  true,
		Message: path,
	}
}

// checkRecordedDaemon compares the PID file's claim against a real
// process probe. The lifecycle actions never make this comparison; only
// doctor does.
func checkRecordedDaemon(path string) doctorCheck {
	store := pidfile.New(path)
	if !store.Exists() {
		return doctorCheck{
			Name:    "Recorded daemon",
			Passed:  true,
			Message: "no pid file, nothing recorded",
		}
	}

	pid, ok := store.Read()
	if !ok {
		return doctorCheck{
			Name:    "Recorded daemon",
			Passed:  false,
			Message: fmt.Sprintf("pid file %s exists but holds no usable pid", path),
		}
	}

	alive, err := process.PidExists(int32(pid))
	if err != nil {
		return doctorCheck{
			Name:    "Recorded daemon",
			Passed:  false,
			Message: fmt.Sprintf("cannot probe pid %d: %v", pid, err),
		}
	}
	if !alive {
		return doctorCheck{
			Name:    "Recorded daemon",
			Passed:  false,
			Message: fmt.Sprintf("stale pid file, pid %d is gone (run stop to clear)", pid),
		}
	}
	return doctorCheck{
		Name:    "Recorded daemon",
		Passed:  true,
		Message: fmt.Sprintf("running (PID %d)", pid),
	}
}
