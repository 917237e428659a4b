package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ClozeMark/internal/validation"
)

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// captureOutput redirects stdout and stderr for the rest of the test.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, errOut
}

// quietGlobals keeps command logging at error level.
func quietGlobals() *Globals {
	return &Globals{LogLevel: "error", LogFormat: "text"}
}

// Tests for doc commands

func TestDocPromoteCmd_Run(t *testing.T) {
	tests := []struct {
		name      string
		at        int
		wantCount int
		wantLeft  string
	}{
		{name: "all markers", at: -1, wantCount: 2},
		{name: "marker at offset", at: 8, wantCount: 1, wantLeft: "##beta##"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			path := createTestFile(t, tempDir, "doc.html", `<div><p>Intro #alpha# and ##beta##</p></div>`)
			out, errOut := captureOutput(t)

			cmd := &DocPromoteCmd{DocFile: DocFile{Path: path}, At: tt.at}
			if err := cmd.Run(quietGlobals()); err != nil {
				t.Fatalf("DocPromoteCmd.Run() error = %v", err)
			}

			if got := strings.Count(out.String(), `data-cloze="inline"`); got != tt.wantCount {
				t.Errorf("annotations = %d, want %d\n%s", got, tt.wantCount, out.String())
			}
			if tt.wantLeft != "" && !strings.Contains(out.String(), tt.wantLeft) {
				t.Errorf("output should keep %q: %s", tt.wantLeft, out.String())
			}
			if errOut.Len() == 0 {
				t.Error("result summary should be printed on stderr")
			}
		})
	}
}

func TestDocPromoteCmd_Run_InPlace(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html", `<div><p>#alpha#</p></div>`)
	out, _ := captureOutput(t)

	cmd := &DocPromoteCmd{DocFile: DocFile{Path: path, InPlace: true}, At: -1}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocPromoteCmd.Run() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("in-place run should not print markup: %s", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), `data-priority="high"`) {
		t.Errorf("file not rewritten: %s", data)
	}

	cmd.Out = filepath.Join(tempDir, "other.html")
	if err := cmd.Run(quietGlobals()); err == nil {
		t.Error("--out with --in-place should fail")
	}
}

func TestDocPromoteCmd_Run_InvalidInput(t *testing.T) {
	tempDir := t.TempDir()
	captureOutput(t)

	plain := createTestFile(t, tempDir, "notes.txt", "not markup at all")
	cmd := &DocPromoteCmd{DocFile: DocFile{Path: plain}, At: -1}
	if err := cmd.Run(quietGlobals()); !errors.Is(err, validation.ErrNotMarkup) {
		t.Errorf("error = %v, want ErrNotMarkup", err)
	}

	broken := createTestFile(t, tempDir, "broken.html", "<div><p></div>")
	cmd = &DocPromoteCmd{DocFile: DocFile{Path: broken}, At: -1}
	if err := cmd.Run(quietGlobals()); err == nil {
		t.Error("malformed markup should fail")
	}
}

func TestDocCreateCmd_Run(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html", `<div><p>Hello brave world</p></div>`)
	outPath := filepath.Join(tempDir, "out.html")
	captureOutput(t)

	cmd := &DocCreateCmd{DocFile: DocFile{Path: path, Out: outPath}, Start: 6, End: 11, Priority: "high"}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocCreateCmd.Run() error = %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), `data-priority="high"`) || !strings.Contains(string(data), "brave") {
		t.Errorf("output = %s", data)
	}

	blank := &DocCreateCmd{DocFile: DocFile{Path: path}, Start: 5, End: 6, Priority: "low"}
	if err := blank.Run(quietGlobals()); err == nil {
		t.Error("a whitespace-only selection should be rejected")
	}
}

func TestDocFeedbackCmd_Run(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html",
		`<div><p>a <span data-cloze="inline" data-score="0">word</span> b</p></div>`)
	out, errOut := captureOutput(t)

	cmd := &DocFeedbackCmd{DocFile: DocFile{Path: path}, At: 3, Grade: "yes"}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocFeedbackCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `data-score="2"`) {
		t.Errorf("score not raised: %s", out.String())
	}
	if !strings.Contains(errOut.String(), `"delay": 2`) {
		t.Errorf("result = %s", errOut.String())
	}

	miss := &DocFeedbackCmd{DocFile: DocFile{Path: path}, At: 0, Grade: "yes"}
	if err := miss.Run(quietGlobals()); err == nil {
		t.Error("feedback outside an annotation should fail")
	}
}

func TestDocIterateCmd_Run(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html",
		`<div><p><span data-cloze="inline" data-score="2" data-revision-delay="2">x</span></p></div>`)
	out, _ := captureOutput(t)

	cmd := &DocIterateCmd{DocFile: DocFile{Path: path}, Count: 2}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocIterateCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `data-revision-delay="0"`) {
		t.Errorf("delay should reach zero: %s", out.String())
	}

	zero := &DocIterateCmd{DocFile: DocFile{Path: path}, Count: 0}
	if err := zero.Run(quietGlobals()); err == nil {
		t.Error("--count 0 should fail")
	}
}

func TestDocFilterCmd_Run(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html",
		`<div><p><span data-cloze="inline" data-priority="low">x</span></p></div>`)
	out, _ := captureOutput(t)

	cmd := &DocFilterCmd{DocFile: DocFile{Path: path}, Priorities: "high"}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocFilterCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `data-priority-hidden="true"`) {
		t.Errorf("low tier should be hidden: %s", out.String())
	}

	bad := &DocFilterCmd{DocFile: DocFile{Path: path}, Priorities: "urgent"}
	if err := bad.Run(quietGlobals()); err == nil {
		t.Error("unknown tier should fail")
	}
}

func TestDocStatsCmd_Run(t *testing.T) {
	tempDir := t.TempDir()
	path := createTestFile(t, tempDir, "doc.html",
		`<div><p><span data-cloze="inline">a</span> <span data-cloze="inline" data-priority="high">b</span></p></div>`)
	out, _ := captureOutput(t)

	cmd := &DocStatsCmd{Path: path}
	if err := cmd.Run(quietGlobals()); err != nil {
		t.Fatalf("DocStatsCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `"annotations": 2`) {
		t.Errorf("stats = %s", out.String())
	}
}

// Tests for store commands

func TestStoreCommands(t *testing.T) {
	tempDir := t.TempDir()
	flags := StoreFlags{DB: filepath.Join(tempDir, "docs.db")}
	path := createTestFile(t, tempDir, "doc.html", `<div><p>kept</p></div>`)
	g := quietGlobals()

	out, _ := captureOutput(t)
	save := &StoreSaveCmd{StoreFlags: flags, Name: "biology/cells", Path: path}
	if err := save.Run(g); err != nil {
		t.Fatalf("StoreSaveCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "saved: biology/cells") {
		t.Errorf("save output = %s", out.String())
	}

	out.Reset()
	if err := save.Run(g); err != nil {
		t.Fatalf("second save error = %v", err)
	}
	if !strings.Contains(out.String(), "unchanged") {
		t.Errorf("second save should be unchanged: %s", out.String())
	}

	out.Reset()
	if err := (&StoreListCmd{StoreFlags: flags}).Run(g); err != nil {
		t.Fatalf("StoreListCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "biology/cells") {
		t.Errorf("list output = %s", out.String())
	}

	out.Reset()
	if err := (&StoreLoadCmd{StoreFlags: flags, Name: "biology/cells"}).Run(g); err != nil {
		t.Fatalf("StoreLoadCmd.Run() error = %v", err)
	}
	if out.String() != `<div><p>kept</p></div>` {
		t.Errorf("load output = %q", out.String())
	}

	exportDir := filepath.Join(tempDir, "export")
	if err := (&StoreExportCmd{StoreFlags: flags, Dir: exportDir}).Run(g); err != nil {
		t.Fatalf("StoreExportCmd.Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportDir, "biology_cells.html")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	if err := (&StoreDeleteCmd{StoreFlags: flags, Name: "biology/cells"}).Run(g); err != nil {
		t.Fatalf("StoreDeleteCmd.Run() error = %v", err)
	}
	if err := (&StoreLoadCmd{StoreFlags: flags, Name: "biology/cells"}).Run(g); err == nil {
		t.Error("load after delete should fail")
	}

	out.Reset()
	if err := (&StoreListCmd{StoreFlags: flags}).Run(g); err != nil {
		t.Fatalf("StoreListCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "No documents stored.") {
		t.Errorf("empty list output = %s", out.String())
	}
}

func TestStoreSaveCmd_Run_InvalidMarkup(t *testing.T) {
	tempDir := t.TempDir()
	captureOutput(t)
	path := createTestFile(t, tempDir, "broken.html", "<div><p></div>")

	cmd := &StoreSaveCmd{StoreFlags: StoreFlags{DB: filepath.Join(tempDir, "docs.db")}, Name: "x", Path: path}
	if err := cmd.Run(quietGlobals()); err == nil {
		t.Error("malformed markup should not be stored")
	}
}

// Tests for config commands

func TestConfigCommands(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "conf", "clozemark.yaml")
	out, _ := captureOutput(t)

	if err := (&ConfigInitCmd{Path: path}).Run(); err != nil {
		t.Fatalf("ConfigInitCmd.Run() error = %v", err)
	}
	if err := (&ConfigInitCmd{Path: path}).Run(); err == nil {
		t.Error("init over an existing file should fail without --force")
	}
	if err := (&ConfigInitCmd{Path: path, Force: true}).Run(); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out.Reset()
	g := &Globals{ConfigFile: path, LogLevel: "warn"}
	if err := (&ConfigShowCmd{}).Run(g); err != nil {
		t.Fatalf("ConfigShowCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "level: warn") || !strings.Contains(out.String(), "bulk_cap: 200") {
		t.Errorf("show output = %s", out.String())
	}
}

func TestGlobals_InvalidOverrides(t *testing.T) {
	tests := []Globals{
		{LogLevel: "loud"},
		{LogFormat: "xml"},
		{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for _, g := range tests {
		if _, err := g.settings(); err == nil {
			t.Errorf("settings(%+v) should fail", g)
		}
	}
}

func TestVersionCmd_Run(t *testing.T) {
	out, _ := captureOutput(t)
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatalf("VersionCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), version) || !strings.Contains(out.String(), "SQLite driver") {
		t.Errorf("version output = %s", out.String())
	}
}
