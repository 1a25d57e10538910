package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/qbank-io/apiserver/internal/audit"
	"github.com/qbank-io/apiserver/types"
)

// AuditEventsChannel is the broker channel audit entries are published to
// when an audit publisher is configured.
const AuditEventsChannel = "audit-events"

// AuditRowWriter persists the relational audit row.
type AuditRowWriter interface {
	Create(ctx context.Context, entry types.AuditLog) (types.AuditLog, error)
}

// AuditPublisher fans an audit entry out to an external broker.
type AuditPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Mutation describes one question mutation to be recorded.
type Mutation struct {
	QuestionID int
	User       types.User
	Action     string

	// OldData and NewData are snapshots of the externally visible fields.
	// With both present the trail entry carries their diff; with only
	// NewData it carries the snapshot verbatim.
	OldData map[string]any
	NewData map[string]any

	// Summary defaults to "question <action lowercased>" when empty.
	Summary string
}

// Recorder is the single logical "record mutation" step with independent
// sinks: the diff-bearing file trail, the queryable relational row and an
// optional broker. The sinks share no transaction; a crash or a failed sink
// can leave them inconsistent, which is an accepted best-effort gap. Sink
// failures are logged and never fail the request that caused the mutation.
type Recorder struct {
	trail     *audit.Trail
	rows      AuditRowWriter
	publisher AuditPublisher
}

// NewRecorder constructs a Recorder. publisher may be nil.
func NewRecorder(trail *audit.Trail, rows AuditRowWriter, publisher AuditPublisher) *Recorder {
	return &Recorder{
		trail:     trail,
		rows:      rows,
		publisher: publisher,
	}
}

// Record writes the mutation to every configured sink.
func (r *Recorder) Record(ctx context.Context, m Mutation) {
	entry := audit.NewEntry(
		m.QuestionID,
		m.User.ID,
		m.User.Username,
		m.Action,
		m.OldData,
		m.NewData,
		m.Summary,
	)

	if err := r.trail.Append(entry); err != nil {
		log.Printf("audit: trail append failed for question %d: %v", m.QuestionID, err)
	}

	row := types.AuditLog{
		QuestionID:     m.QuestionID,
		UserID:         m.User.ID,
		Action:         m.Action,
		ChangesSummary: &entry.Summary,
	}
	if _, err := r.rows.Create(ctx, row); err != nil {
		log.Printf("audit: row insert failed for question %d: %v", m.QuestionID, err)
	}

	if r.publisher != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("audit: event marshal failed for question %d: %v", m.QuestionID, err)
			return
		}
		attrs := map[string]string{"action": m.Action}
		if _, err := r.publisher.Publish(ctx, AuditEventsChannel, data, attrs); err != nil {
			log.Printf("audit: event publish failed for question %d: %v", m.QuestionID, err)
		}
	}
}
