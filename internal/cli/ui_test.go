package cli

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout returns what fn printed to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name     string
		summary  treeSummary
		want     []string
		wantNone []string
	}{
		{
			name:     "Fresh",
			summary:  treeSummary{placed: 4, links: 3},
			want:     []string{"4 people", "3 links", "fresh"},
			wantNone: []string{"cached", "secondary parent"},
		},
		{
			name:     "SinglePersonCached",
			summary:  treeSummary{placed: 1, cached: true},
			want:     []string{"1 people", "cached"},
			wantNone: []string{"links", "fresh"},
		},
		{
			name:    "Dropped",
			summary: treeSummary{placed: 3, links: 2, dropped: 1},
			want:    []string{"1 secondary parent links are not shown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t, func() { printSummary(tt.summary) })
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output %q missing %q", out, s)
				}
			}
			for _, s := range tt.wantNone {
				if strings.Contains(out, s) {
					t.Errorf("output %q should not contain %q", out, s)
				}
			}
		})
	}
}

func TestPrintNextStep(t *testing.T) {
	out := captureStdout(t, func() { printNextStep("Render", "kintree render family.json") })
	if !strings.HasPrefix(out, "\n") {
		t.Errorf("next step should follow a blank line, got %q", out)
	}
	if !strings.Contains(out, "Render: kintree render family.json") {
		t.Errorf("output = %q", out)
	}
}
