package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

// setup isolates config and cache directories and writes a snapshot of
// A→B, A→C, B→D plus a spouse of A.
func setup(t *testing.T) (dir, snapshot string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("KINTREE_CACHE_BACKEND", "")
	t.Setenv("KINTREE_STORE_BACKEND", "")

	people := familytest.New("A", "B", "C", "D", "S").
		Parent("A", "B").
		Parent("A", "C").
		Parent("B", "D").
		Spouse("A", "S").
		People()
	snapshot = filepath.Join(dir, "family.json")
	snap := &family.Snapshot{TreeID: "t1", Name: "Test family", People: people}
	if err := family.WriteSnapshotFile(snap, snapshot); err != nil {
		t.Fatal(err)
	}
	return dir, snapshot
}

// execute runs the root command and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"cache", "completion", "export", "import", "layout", "render", "serve", "view"}
	var got []string
	for _, cmd := range root.Commands() {
		if cmd.Name() == "help" {
			continue
		}
		got = append(got, cmd.Name())
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestLayoutCommand(t *testing.T) {
	_, snapshot := setup(t)

	out, err := execute(t, "layout", snapshot)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := layout.Unmarshal([]byte(out))
	if err != nil {
		t.Fatalf("output is not a layout: %v\n%s", err, out)
	}
	if l.Len() != 4 {
		t.Errorf("laid out %d people, want 4 (the spouse is not a descendant)", l.Len())
	}
	if b, ok := l.Lookup("B"); !ok || b.X != -110 || b.Y != 120 {
		t.Errorf("B = %+v, want (-110, 120)", b)
	}
}

func TestLayoutCommandFlags(t *testing.T) {
	dir, snapshot := setup(t)
	output := filepath.Join(dir, "out.json")

	if _, err := execute(t, "layout", snapshot, "--sibling-gutter", "100", "--level-gutter", "50", "-o", output); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layout.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := l.Lookup("D"); d.X != -50 || d.Y != 100 {
		t.Errorf("D = (%g, %g), want (-50, 100)", d.X, d.Y)
	}
}

func TestLayoutCommandConfig(t *testing.T) {
	dir, snapshot := setup(t)
	cfg := filepath.Join(dir, "kintree.toml")
	if err := os.WriteFile(cfg, []byte("[layout]\nlevel_gutter = 200\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfg, "layout", snapshot)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := layout.Unmarshal([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := l.Lookup("B"); b.Y != 200 {
		t.Errorf("B.Y = %g, want 200 from the config file", b.Y)
	}

	if _, err := execute(t, "--config", filepath.Join(dir, "missing.toml"), "layout", snapshot); err == nil {
		t.Error("an explicit missing config file should fail")
	}
}

func TestLayoutCommandMissingFile(t *testing.T) {
	dir, _ := setup(t)
	if _, err := execute(t, "layout", filepath.Join(dir, "nope.json")); err == nil {
		t.Error("expected error for a missing snapshot")
	}
}

func TestRenderCommand(t *testing.T) {
	dir, snapshot := setup(t)
	base := filepath.Join(dir, "out", "family")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "render", snapshot, "-f", "svg,json,dot", "-o", base, "--title", "Family"); err != nil {
		t.Fatalf("render: %v", err)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`data-person-id="D"`)) {
		t.Error("svg should contain a card for D")
	}

	var decoded map[string]any
	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Errorf("json output: %v", err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "digraph") || !strings.Contains(string(dot), `"S"`) {
		t.Errorf("dot output should be the full graph including the spouse:\n%s", dot)
	}
}

func TestRenderCommandSingleOutput(t *testing.T) {
	dir, snapshot := setup(t)
	output := filepath.Join(dir, "tree.svg")

	if _, err := execute(t, "render", snapshot, "-o", output, "--width", "800", "--height", "600"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`width="800"`)) {
		t.Error("fixed viewport should set the SVG width")
	}
}

func TestRenderCommandInvalid(t *testing.T) {
	_, snapshot := setup(t)
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"-f", "gif"}},
		{"view", []string{"-t", "radial"}},
		{"half viewport", []string{"--width", "800"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", snapshot}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Errorf("render %v: expected error", tt.args)
			}
		})
	}
}

func TestRenderCommandEmpty(t *testing.T) {
	dir, _ := setup(t)
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"id":"t0","people":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "render", empty); err != nil {
		t.Fatalf("render of an empty tree should succeed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty.svg")); !os.IsNotExist(err) {
		t.Error("nothing should be written for an empty tree")
	}
}

func TestImportCommand(t *testing.T) {
	_, snapshot := setup(t)
	if _, err := execute(t, "import", snapshot); err == nil {
		t.Error("import without --owner should fail")
	}
	if _, err := execute(t, "import", snapshot, "--owner", "u1"); err != nil {
		t.Errorf("import: %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	dir, snapshot := setup(t)
	if _, err := execute(t, "layout", snapshot); err != nil {
		t.Fatal(err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*"))
	if len(entries) == 0 {
		t.Fatal("layout should have written a cache entry")
	}

	if _, err := execute(t, "cache", "info"); err != nil {
		t.Errorf("cache info: %v", err)
	}
	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Errorf("cache clear: %v", err)
	}
	entries, _ = filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*"))
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png,pdf", []string{"svg", "png", "pdf"}},
		{" JSON , dot,json", []string{"json", "dot"}},
		{",", []string{"svg"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "family.json", "family"},
		{"", "dir/family.json", "dir/family"},
		{"out.svg", "family.json", "out"},
		{"out.v2", "family.json", "out.v2"},
		{"out", "family.json", "out"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, filepath.Join(dir, "family.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "family.svg"), filepath.Join(dir, "family.json")}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	single := filepath.Join(dir, "picture.img")
	paths, err = writeArtifacts(artifacts, []string{"svg"}, "family.json", single)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != single {
		t.Errorf("single format should use the output path as is, got %v", paths)
	}

	if _, err := writeArtifacts(artifacts, []string{"png"}, "family.json", filepath.Join(dir, "x")); err == nil {
		t.Error("expected error when no requested format was produced")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
