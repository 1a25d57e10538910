package types

import "time"

// Audit actions recorded for question mutations.
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionStatusChange = "STATUS_CHANGE"
	ActionImport       = "IMPORT"
)

// AuditLog is the queryable relational record of a question mutation.
// Rows are append-only and never updated once written.
type AuditLog struct {
	// ID is the unique identifier of the log row.
	ID int `json:"id" db:"id"`

	// QuestionID references the mutated question.
	QuestionID int `json:"question_id" db:"question_id"`

	// UserID references the acting user.
	UserID int `json:"user_id" db:"user_id"`

	// Action is one of the Action* tags.
	Action string `json:"action" db:"action"`

	// ChangesSummary is a free-text summary of the mutation.
	ChangesSummary *string `json:"changes_summary" db:"changes_summary"`

	// Timestamp is when the row was written.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
