package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/blackwell-systems/daemonize/internal/daemon"
	"github.com/blackwell-systems/daemonize/internal/output"
)

// statusDetailOutput is the JSON shape of status --detail, the report
// augmented with a liveness probe.
type statusDetailOutput struct {
	daemon.StatusReport
	Alive bool `json:"alive"`
}

// printStatus renders the status action. The plain report answers from
// the PID file alone; the file is the protocol's source of truth even
// when the recorded process is long gone. Only --detail adds a real
// process probe on top.
func printStatus(rep daemon.StatusReport) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if statusDetail {
			return enc.Encode(statusDetailOutput{StatusReport: rep, Alive: pidAlive(rep)})
		}
		return enc.Encode(rep)
	}

	if statusDetail {
		return printStatusDetail(rep)
	}

	if !rep.Present {
		fmt.Println("No such process running.")
		return nil
	}
	fmt.Printf("The process is running, PID is %d.\n", rep.PID)
	return nil
}

// printStatusDetail renders the extended status view.
func printStatusDetail(rep daemon.StatusReport) error {
	fmt.Println(output.Section("Daemon Status"))
	fmt.Println()
	fmt.Println(output.KeyValue("PID file", rep.PIDFile))

	if !rep.Present {
		fmt.Println(output.KeyValue("State", output.StateBadge(false)))
		fmt.Println()
		return nil
	}

	fmt.Println(output.KeyValue("Recorded pid", strconv.Itoa(rep.PID)))

	alive := pidAlive(rep)
	fmt.Println(output.KeyValue("State", output.StateBadge(alive)))

	if !alive {
		fmt.Println(output.KeyValue("Note", output.StyleWarning.Render("stale pid file, run stop to clear it")))
		fmt.Println()
		return nil
	}

	if proc, err := process.NewProcess(int32(rep.PID)); err == nil {
		if created, err := proc.CreateTime(); err == nil {
			started := time.UnixMilli(created)
			fmt.Println(output.KeyValue("Started", started.Local().Format("2006-01-02 15:04:05")))
			fmt.Println(output.KeyValue("Uptime", time.Since(started).Round(time.Second).String()))
		}
		if cmdline, err := proc.Cmdline(); err == nil && cmdline != "" {
			fmt.Println(output.KeyValue("Command", output.Truncate(cmdline, 60)))
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			fmt.Println(output.KeyValue("Memory", formatBytes(mem.RSS)))
		}
	}
	fmt.Println()
	return nil
}

// pidAlive probes whether the recorded pid maps to a live process.
func pidAlive(rep daemon.StatusReport) bool {
	if !rep.Present {
		return false
	}
	alive, err := process.PidExists(int32(rep.PID))
	return err == nil && alive
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
