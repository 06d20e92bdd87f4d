package output

import (
	"strings"
	"testing"
)

func TestSection(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	out := Section("Daemon")
	if !strings.Contains(out, "Daemon") {
		t.Error("expected title in section output")
	}
	if !strings.Contains(out, "─") {
		t.Error("expected horizontal rule in section output")
	}
}

func TestKeyValue(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	out := KeyValue("PID file", "/daemon.pid")
	if !strings.Contains(out, "PID file") || !strings.Contains(out, "/daemon.pid") {
		t.Errorf("expected label and value in output, got %q", out)
	}
}

func TestStateBadge(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if out := StateBadge(true); !strings.Contains(out, "running") {
		t.Errorf("expected running badge, got %q", out)
	}
	if out := StateBadge(false); !strings.Contains(out, "stopped") {
		t.Errorf("expected stopped badge, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"shorter than max", "sleep 5", 20, "sleep 5"},
		{"exact max", "12345", 5, "12345"},
		{"clipped", "/bin/sh -c 'while true; do work; done'", 10, "/bin/sh -…"},
		{"max one", "abc", 1, "…"},
		{"zero max means no limit", "abcdef", 0, "abcdef"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.input, tc.max)
			if got != tc.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
			}
		})
	}
}
