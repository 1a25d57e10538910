package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDiffReportsOnlyChangedSharedKeys(t *testing.T) {
	oldData := map[string]any{"a": 1, "b": 2}
	newData := map[string]any{"a": 1, "b": 3, "c": 4}

	changes := Diff(oldData, newData)

	if len(changes) != 1 {
		t.Fatalf("expected exactly one change, got %d: %v", len(changes), changes)
	}
	change, ok := changes["b"]
	if !ok {
		t.Fatalf("expected a change for key b, got %v", changes)
	}
	if change.Old.(int) != 2 || change.New.(int) != 3 {
		t.Fatalf("expected old=2 new=3, got old=%v new=%v", change.Old, change.New)
	}
}

func TestDiffTreatsJSONNumbersAsEqual(t *testing.T) {
	// A snapshot decoded from JSON carries float64 where the in-memory
	// snapshot carries int; those must not read as a change.
	changes := Diff(map[string]any{"n": float64(2)}, map[string]any{"n": 2})
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %v", changes)
	}
}

func TestDiffHandlesUncomparableValues(t *testing.T) {
	// Decoded JSON documents carry []any values; comparing them must not
	// panic and equal arrays must not read as a change.
	oldData := map[string]any{"tags": []any{"algebra", "linear"}}
	newData := map[string]any{"tags": []any{"algebra", "linear"}}
	if changes := Diff(oldData, newData); len(changes) != 0 {
		t.Fatalf("equal arrays reported as changed: %v", changes)
	}

	newData = map[string]any{"tags": []any{"geometry"}}
	changes := Diff(oldData, newData)
	if len(changes) != 1 {
		t.Fatalf("expected one change for differing arrays, got %v", changes)
	}
}

func TestNewEntryDefaultSummary(t *testing.T) {
	entry := NewEntry(1, 2, "editor", "DELETE", nil, nil, "")
	if entry.Summary != "question delete" {
		t.Fatalf("unexpected default summary: %q", entry.Summary)
	}

	entry = NewEntry(1, 2, "editor", "CREATE", nil, nil, "custom")
	if entry.Summary != "custom" {
		t.Fatalf("expected explicit summary to win, got %q", entry.Summary)
	}
}

func TestNewEntryDataVersusChanges(t *testing.T) {
	created := NewEntry(1, 2, "editor", "CREATE", nil, map[string]any{"subject": "Math"}, "")
	if created.Data == nil || created.Changes != nil {
		t.Fatalf("create entry should carry data only: %+v", created)
	}

	updated := NewEntry(1, 2, "editor", "UPDATE",
		map[string]any{"subject": "Math"},
		map[string]any{"subject": "Physics"}, "")
	if updated.Data != nil || len(updated.Changes) != 1 {
		t.Fatalf("update entry should carry changes only: %+v", updated)
	}
}

func TestWriteAndHistoryRoundTrip(t *testing.T) {
	trail := NewTrail(t.TempDir())

	if _, err := trail.Write(7, 1, "editor", "CREATE", nil, map[string]any{"subject": "Math"}, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := trail.Write(7, 1, "editor", "UPDATE",
		map[string]any{"subject": "Math"},
		map[string]any{"subject": "Physics"}, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := trail.Write(9, 1, "editor", "CREATE", nil, map[string]any{"subject": "Other"}, ""); err != nil {
		t.Fatalf("write: %v", err)
	}

	history, err := trail.History(7, 30)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries for question 7, got %d", len(history))
	}
	for _, entry := range history {
		if entry.QuestionID != 7 {
			t.Fatalf("history leaked entry for question %d", entry.QuestionID)
		}
	}
	// Newest first.
	if history[0].Action != "UPDATE" || history[1].Action != "CREATE" {
		t.Fatalf("unexpected order: %s then %s", history[0].Action, history[1].Action)
	}
}

func TestHistorySpansMultipleDayFiles(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir)

	today := time.Now().UTC()
	writeDayFile(t, dir, today.AddDate(0, 0, -2), Entry{
		Timestamp:  today.AddDate(0, 0, -2).Format(time.RFC3339Nano),
		QuestionID: 5,
		Action:     "CREATE",
		Summary:    "question create",
	})
	writeDayFile(t, dir, today.AddDate(0, 0, -1), Entry{
		Timestamp:  today.AddDate(0, 0, -1).Format(time.RFC3339Nano),
		QuestionID: 5,
		Action:     "UPDATE",
		Summary:    "question update",
	})

	if _, err := trail.Write(5, 1, "editor", "STATUS_CHANGE", nil, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}

	history, err := trail.History(5, 30)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries across day files, got %d", len(history))
	}
	wantOrder := []string{"STATUS_CHANGE", "UPDATE", "CREATE"}
	for i, action := range wantOrder {
		if history[i].Action != action {
			t.Fatalf("position %d: expected %s, got %s", i, action, history[i].Action)
		}
	}

	// Entries older than the window stay invisible.
	history, err = trail.History(5, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Action != "STATUS_CHANGE" {
		t.Fatalf("expected only today's entry, got %v", history)
	}
}

func TestHistorySkipsUnparseableLines(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir)

	if _, err := trail.Write(3, 1, "editor", "CREATE", nil, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}

	path := trail.fileForDay(time.Now().UTC())
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := file.WriteString("{not json\n\n"); err != nil {
		t.Fatalf("append garbage: %v", err)
	}
	_ = file.Close()

	if _, err := trail.Write(3, 1, "editor", "DELETE", nil, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}

	history, err := trail.History(3, 30)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected garbage lines to be skipped, got %d entries", len(history))
	}
}

func TestWriteAppendsOneLinePerEntry(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir)

	for i := 0; i < 3; i++ {
		if _, err := trail.Write(1, 1, "editor", "UPDATE", nil, nil, ""); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	data, err := os.ReadFile(trail.fileForDay(time.Now().UTC()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %q", line)
		}
	}
}

func writeDayFile(t *testing.T, dir string, day time.Time, entries ...Entry) {
	t.Helper()
	name := filepath.Join(dir, filePrefix+day.Format(dateLayout)+fileSuffix)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open day file: %v", err)
	}
	defer file.Close()
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}
