package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/qbank-io/apiserver/types"
)

// AuditLogRepository handles persistence for relational audit rows. Rows are
// append-only: there is no update or delete.
type AuditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry types.AuditLog) (types.AuditLog, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	const query = `
		INSERT INTO audit_logs (question_id, user_id, action, changes_summary, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.QuestionID,
		entry.UserID,
		entry.Action,
		entry.ChangesSummary,
		entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return types.AuditLog{}, err
	}
	return entry, nil
}

// ListByQuestion returns audit rows for a question, newest first.
func (r *AuditLogRepository) ListByQuestion(ctx context.Context, questionID, offset, limit int) ([]types.AuditLog, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 100
	}

	const query = `
		SELECT id, question_id, user_id, action, changes_summary, timestamp
		FROM audit_logs
		WHERE question_id = $1
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, questionID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.AuditLog, 0, limit)
	for rows.Next() {
		var entry types.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.QuestionID,
			&entry.UserID,
			&entry.Action,
			&entry.ChangesSummary,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
