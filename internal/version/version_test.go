package version

import (
	"strings"
	"testing"
)

func TestBuildIDFor(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		expected  int
		wantError bool
	}{
		{name: "epoch date", date: "2026-01-01", expected: 0},
		{name: "next day after epoch", date: "2026-01-02", expected: 1},
		{name: "one year later", date: "2027-01-01", expected: 365},
		{name: "leap year included", date: "2029-01-01", expected: 1096},
		{name: "invalid format", date: "invalid", wantError: true},
		{name: "empty date", date: "", wantError: true},
		{name: "before epoch", date: "2025-12-31", wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildIDFor(tt.date)

			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got nil (id=%d)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("buildIDFor(%q) = %d, want %d", tt.date, got, tt.expected)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	old := BuildDate
	t.Cleanup(func() { BuildDate = old })

	BuildDate = ""
	if info := Info(); info.Calculated || info.Error == "" {
		t.Errorf("empty BuildDate must not be calculated: %+v", info)
	}
	if !strings.HasPrefix(String(), "Build unknown") {
		t.Errorf("String() = %q", String())
	}

	BuildDate = "2026-01-11"
	info := Info()
	if !info.Calculated || info.BuildID != 10 {
		t.Errorf("Info() = %+v", info)
	}
	if !strings.Contains(String(), "commit[unknown]") {
		t.Errorf("String() = %q", String())
	}
}
