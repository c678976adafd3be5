// internal/journal/journal.go
//
// The journal is the human-readable activity trail shown in the log panel:
// one line per submitted stage, upload, lookup change or export. Entries
// made inside the wizard carry the employee and stage they concern, so the
// panel can show one employee's history while their record is open.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Journal appends entries to a plain text file.
type Journal struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a journal that writes to the provided path.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Journal{path: path, now: time.Now}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Entry is one journal line. Employee and Stage place it in a wizard run;
// either may be empty.
type Entry struct {
	Time     time.Time
	Level    Level
	Employee string
	Stage    string
	Message  string
}

// String renders the entry as it is stored:
//
//	2024-03-01T09:30:00Z INFO  [emp-1|Education] Education details saved
//
// The bracketed scope is left out when both parts are empty and a missing
// part is written as "-".
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s ", e.Time.UTC().Format(time.RFC3339), string(e.Level))
	if e.Employee != "" || e.Stage != "" {
		fmt.Fprintf(&b, "[%s|%s] ", orDash(e.Employee), orDash(e.Stage))
	}
	b.WriteString(e.Message)
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ParseEntry reads a line written by the journal.
func ParseEntry(line string) (Entry, bool) {
	stamp, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, false
	}
	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return Entry{}, false
	}
	level, rest, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	e := Entry{Time: at, Level: Level(level), Message: strings.TrimLeft(rest, " ")}
	if scope, msg, ok := strings.Cut(e.Message, "] "); ok && strings.HasPrefix(scope, "[") {
		if employee, stage, ok := strings.Cut(scope[1:], "|"); ok {
			if employee != "-" {
				e.Employee = employee
			}
			if stage != "-" {
				e.Stage = stage
			}
			e.Message = msg
		}
	}
	return e, true
}

// Record writes e, stamping it with the journal clock. Multi-line messages
// are folded onto one line so Tail counts stay meaningful.
func (j *Journal) Record(e Entry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	e.Time = j.now()
	e.Message = strings.Join(strings.Fields(e.Message), " ")
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(e.String() + "\n")
}

// Append writes an entry without a scope.
func (j *Journal) Append(level Level, message string) {
	j.Record(Entry{Level: level, Message: message})
}

// For returns a Scope whose entries are tagged with employeeID and stage.
func (j *Journal) For(employeeID, stage string) Scope {
	return Scope{journal: j, employee: employeeID, stage: stage}
}

// Scope writes entries about one employee and wizard stage.
type Scope struct {
	journal  *Journal
	employee string
	stage    string
}

func (s Scope) Append(level Level, message string) {
	s.journal.Record(Entry{Level: level, Employee: s.employee, Stage: s.stage, Message: message})
}

// History returns up to maxEntries of the most recent entries about
// employeeID, oldest first.
func (j *Journal) History(employeeID string, maxEntries int) []Entry {
	if j == nil || employeeID == "" || maxEntries <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		e, ok := ParseEntry(scanner.Text())
		if !ok || e.Employee != employeeID {
			continue
		}
		entries = append(entries, e)
		if len(entries) > maxEntries {
			entries = entries[1:]
		}
	}
	return entries
}

// Tail returns up to maxLines of the most recent entries along with the total
// number of entries in the file.
func (j *Journal) Tail(maxLines int) ([]string, int) {
	if j == nil || maxLines <= 0 {
		return nil, 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		total++
		lines = append(lines, scanner.Text())
		if len(lines) > maxLines {
			lines = lines[1:]
		}
	}
	if len(lines) == 0 {
		return nil, total
	}
	return lines, total
}

// Info appends an informational entry.
func (j *Journal) Info(format string, args ...any) {
	j.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (j *Journal) Warn(format string, args ...any) {
	j.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (j *Journal) Error(format string, args ...any) {
	j.Append(LevelError, fmt.Sprintf(format, args...))
}
