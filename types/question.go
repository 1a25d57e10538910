package types

import "time"

// Difficulty is the relative difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether the difficulty is one of the known values.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Status is the publication state of a question.
type Status string

const (
	// StatusProd marks a question as published and visible to viewers.
	StatusProd Status = "prod"

	// StatusDevmt marks a question as in development; viewers cannot see it.
	StatusDevmt Status = "devmt"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusProd, StatusDevmt:
		return true
	}
	return false
}

// Question represents a question-bank record.
type Question struct {
	// ID is the unique identifier of the question.
	ID int `json:"id" db:"id"`

	// Subject is the broad subject area the question belongs to.
	Subject string `json:"subject" db:"subject"`

	// Topic is the finer-grained topic within the subject.
	Topic string `json:"topic" db:"topic"`

	// Question is the free-text body. It may embed markup such as LaTeX.
	Question string `json:"question" db:"question"`

	// Difficulty indicates the relative difficulty level of the question.
	Difficulty Difficulty `json:"difficulty" db:"difficulty"`

	// Status is the publication state. New questions default to prod; edits
	// without an explicit status reset it to devmt.
	Status Status `json:"status" db:"status"`

	// AttachmentFilename is the original filename supplied by the author,
	// if the question carries an attachment.
	AttachmentFilename *string `json:"attachment_filename" db:"attachment_filename"`

	// AttachmentPath is the resolved storage key of the attachment.
	AttachmentPath *string `json:"attachment_path" db:"attachment_path"`

	// IsDeleted marks the question as soft-deleted. Deleted questions are
	// excluded from default queries but remain addressable by ID.
	IsDeleted bool `json:"is_deleted" db:"is_deleted"`

	// CreatedBy is the ID of the user who created the question.
	CreatedBy int `json:"created_by" db:"created_by"`

	// CreatedAt is the timestamp at which the question was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedBy is the ID of the user who last mutated the question.
	UpdatedBy *int `json:"updated_by" db:"updated_by"`

	// UpdatedAt is the timestamp of the most recent mutation.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Snapshot returns the externally visible fields of the question, keyed the
// way they appear on the wire. Audit diffs are computed over these maps.
func (q Question) Snapshot() map[string]any {
	var attachment any
	if q.AttachmentFilename != nil {
		attachment = *q.AttachmentFilename
	}
	return map[string]any{
		"subject":             q.Subject,
		"topic":               q.Topic,
		"question":            q.Question,
		"difficulty":          string(q.Difficulty),
		"status":              string(q.Status),
		"attachment_filename": attachment,
	}
}

// QuestionFilter narrows question listings. Zero values mean "no filter".
type QuestionFilter struct {
	// Subject and Topic are case-insensitive substring matches.
	Subject string
	Topic   string

	// Difficulty and Status are exact matches when non-empty.
	Difficulty Difficulty
	Status     Status

	// IncludeDeleted includes soft-deleted rows when true.
	IncludeDeleted bool
}

// QuestionUpdate is a partial update: nil fields are left untouched.
type QuestionUpdate struct {
	Subject            *string     `json:"subject"`
	Topic              *string     `json:"topic"`
	Question           *string     `json:"question"`
	Difficulty         *Difficulty `json:"difficulty"`
	Status             *Status     `json:"status"`
	AttachmentFilename *string     `json:"attachment_filename"`
	AttachmentPath     *string     `json:"attachment_path"`
}
