package journal

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	j, err := New(path)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	for i := 0; i < 5; i++ {
		j.Info("entry-%d", i)
	}
	lines, total := j.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFormatsLevelAndFoldsLines(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "nested", "journal.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	j.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	j.Error("upload failed:\n  file too large")

	lines, total := j.Tail(10)
	if total != 1 || len(lines) != 1 {
		t.Fatalf("tail = %v (%d)", lines, total)
	}
	want := "2024-03-01T09:30:00Z ERROR upload failed: file too large"
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestTailMissingFileAndNilJournal(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatal(err)
	}
	if lines, total := j.Tail(5); lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v %d", lines, total)
	}
	var nilJournal *Journal
	nilJournal.Warn("ignored")
	if nilJournal.Path() != "" {
		t.Fatalf("nil journal path should be empty")
	}
}

func TestScopedEntriesAndHistory(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatal(err)
	}
	j.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	j.For("", "Personal Information").Append(LevelInfo, "Adding a new employee")
	j.For("emp-1", "Education").Append(LevelInfo, "Education details saved")
	j.For("emp-2", "Documents").Append(LevelError, "Upload failed")
	j.Info("Exported 2 employee(s)")
	j.For("emp-1", "Next of Kin").Append(LevelWarn, "[draft] missing phone")

	lines, total := j.Tail(10)
	if total != 5 {
		t.Fatalf("total = %d", total)
	}
	if want := "2024-03-01T09:30:00Z INFO  [-|Personal Information] Adding a new employee"; lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
	if want := "2024-03-01T09:30:00Z INFO  Exported 2 employee(s)"; lines[3] != want {
		t.Fatalf("unscoped line = %q, want %q", lines[3], want)
	}

	history := j.History("emp-1", 10)
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Stage != "Education" || history[0].Message != "Education details saved" || history[0].Level != LevelInfo {
		t.Fatalf("first entry = %+v", history[0])
	}
	if history[1].Stage != "Next of Kin" || history[1].Message != "[draft] missing phone" || history[1].Level != LevelWarn {
		t.Fatalf("second entry = %+v", history[1])
	}
	if !history[1].Time.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", history[1].Time)
	}
	if got := j.History("emp-1", 1); len(got) != 1 || got[0].Stage != "Next of Kin" {
		t.Fatalf("limited history = %+v", got)
	}
	if got := j.History("", 10); got != nil {
		t.Fatalf("history without an employee = %+v", got)
	}
}

func TestParseEntryLeavesPlainBracketsAlone(t *testing.T) {
	e, ok := ParseEntry("2024-03-01T09:30:00Z WARN  [note] no scope here")
	if !ok {
		t.Fatalf("line not parsed")
	}
	if e.Employee != "" || e.Stage != "" || e.Message != "[note] no scope here" {
		t.Fatalf("entry = %+v", e)
	}
	if _, ok := ParseEntry("not a journal line"); ok {
		t.Fatalf("garbage parsed as an entry")
	}
}
