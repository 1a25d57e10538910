// Package audit implements the append-only, file-based audit trail: one JSON
// object per line, one file per UTC calendar day. It is the diff-bearing
// counterpart of the relational audit_logs table; the two are written
// independently and kept in sync only on a best-effort basis.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix  = "audit_"
	fileSuffix  = ".log"
	dateLayout  = "2006-01-02"
	defaultDays = 30
)

// FieldChange records one field's old and new value in a diff.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Entry is one line of the trail.
type Entry struct {
	Timestamp  string `json:"timestamp"`
	QuestionID int    `json:"question_id"`
	UserID     int    `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	Summary    string `json:"summary"`

	// Changes carries the field diff when both snapshots were available.
	Changes map[string]FieldChange `json:"changes,omitempty"`

	// Data carries the created snapshot verbatim when there was no prior
	// state to diff against.
	Data map[string]any `json:"data,omitempty"`
}

// Trail appends to and scans the daily log files under a single directory.
type Trail struct {
	dir string
}

func NewTrail(dir string) *Trail {
	return &Trail{dir: dir}
}

// Dir returns the managed directory.
func (t *Trail) Dir() string {
	return t.dir
}

// NewEntry builds a trail entry. When both snapshots are given the entry
// carries their field diff; when only newData is given it is stored verbatim.
// An empty summary defaults to "question <action lowercased>".
func NewEntry(questionID, userID int, username, action string, oldData, newData map[string]any, summary string) Entry {
	if summary == "" {
		summary = fmt.Sprintf("question %s", strings.ToLower(action))
	}

	entry := Entry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		QuestionID: questionID,
		UserID:     userID,
		Username:   username,
		Action:     action,
		Summary:    summary,
	}

	switch {
	case oldData != nil && newData != nil:
		entry.Changes = Diff(oldData, newData)
	case newData != nil:
		entry.Data = newData
	}

	return entry
}

// Write builds an entry and appends it to the trail.
func (t *Trail) Write(questionID, userID int, username, action string, oldData, newData map[string]any, summary string) (Entry, error) {
	entry := NewEntry(questionID, userID, username, action, oldData, newData, summary)
	return entry, t.Append(entry)
}

// Append writes the entry as one line to the current UTC day's file, creating
// the directory and file as needed. Each call issues a single O_APPEND write,
// so concurrent writers cannot interleave records.
func (t *Trail) Append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(t.fileForDay(time.Now().UTC()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// History scans the last daysBack daily files (today included) for entries
// matching questionID, newest first. Unparseable lines are skipped.
func (t *Trail) History(questionID, daysBack int) ([]Entry, error) {
	if daysBack < 1 {
		daysBack = defaultDays
	}

	today := time.Now().UTC()
	var history []Entry

	for i := 0; i < daysBack; i++ {
		day := today.AddDate(0, 0, -i)
		entries, err := t.scanFile(t.fileForDay(day), questionID)
		if err != nil {
			return nil, err
		}
		history = append(history, entries...)
	}

	sort.SliceStable(history, func(i, j int) bool {
		return entryAfter(history[i], history[j])
	})

	return history, nil
}

// entryAfter orders entries newest first. RFC3339Nano trims trailing zeros,
// so plain string comparison would misorder entries within the same second.
func entryAfter(a, b Entry) bool {
	at, errA := time.Parse(time.RFC3339Nano, a.Timestamp)
	bt, errB := time.Parse(time.RFC3339Nano, b.Timestamp)
	if errA != nil || errB != nil {
		return a.Timestamp > b.Timestamp
	}
	return at.After(bt)
}

func (t *Trail) scanFile(path string, questionID int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.QuestionID == questionID {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (t *Trail) fileForDay(day time.Time) string {
	name := filePrefix + day.Format(dateLayout) + fileSuffix
	return filepath.Join(t.dir, name)
}

// Diff returns the fields of newData whose value differs from oldData.
// Fields absent from oldData are not reported; unchanged fields are omitted.
func Diff(oldData, newData map[string]any) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	for key, newValue := range newData {
		oldValue, ok := oldData[key]
		if !ok {
			continue
		}
		if !equalValues(oldValue, newValue) {
			changes[key] = FieldChange{Old: oldValue, New: newValue}
		}
	}
	return changes
}

// equalValues compares snapshot values the way they round-trip through JSON,
// so an int 2 and a float64 2 from a decoded document compare equal. Direct
// interface comparison is avoided: it panics on uncomparable dynamic types
// such as decoded arrays.
func equalValues(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
