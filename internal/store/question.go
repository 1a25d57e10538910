package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qbank-io/apiserver/types"
)

// QuestionRepository handles persistence for questions. Deletion is always a
// soft delete: rows keep their primary key and stay addressable for audits.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, subject, topic, question, difficulty, status,
	attachment_filename, attachment_path, is_deleted,
	created_by, created_at, updated_by, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (types.Question, error) {
	var q types.Question
	err := row.Scan(
		&q.ID,
		&q.Subject,
		&q.Topic,
		&q.Question,
		&q.Difficulty,
		&q.Status,
		&q.AttachmentFilename,
		&q.AttachmentPath,
		&q.IsDeleted,
		&q.CreatedBy,
		&q.CreatedAt,
		&q.UpdatedBy,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	return q, nil
}

// filterClauses builds the WHERE clauses shared by List and Count.
func filterClauses(filter types.QuestionFilter) (string, []any) {
	clauses := make([]string, 0, 5)
	args := make([]any, 0, 5)

	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted = FALSE")
	}
	if filter.Subject != "" {
		args = append(args, "%"+filter.Subject+"%")
		clauses = append(clauses, fmt.Sprintf("subject ILIKE $%d", len(args)))
	}
	if filter.Topic != "" {
		args = append(args, "%"+filter.Topic+"%")
		clauses = append(clauses, fmt.Sprintf("topic ILIKE $%d", len(args)))
	}
	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		clauses = append(clauses, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *QuestionRepository) List(ctx context.Context, filter types.QuestionFilter, offset, limit int) ([]types.Question, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 100
	}

	where, args := filterClauses(filter)
	args = append(args, offset, limit)
	query := fmt.Sprintf(
		`SELECT %s FROM questions%s ORDER BY id OFFSET $%d LIMIT $%d`,
		questionColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]types.Question, 0, limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return questions, nil
}

// Count mirrors List's filters for total-count reporting.
func (r *QuestionRepository) Count(ctx context.Context, filter types.QuestionFilter) (int, error) {
	where, args := filterClauses(filter)
	query := "SELECT COUNT(1) FROM questions" + where

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *QuestionRepository) Get(ctx context.Context, id int, includeDeleted bool) (types.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	return scanQuestion(r.db.QueryRowContext(ctx, query, id))
}

func (r *QuestionRepository) Create(ctx context.Context, q types.Question) (types.Question, error) {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = types.StatusProd
	}

	const query = `
		INSERT INTO questions (subject, topic, question, difficulty, status,
			attachment_filename, attachment_path, is_deleted,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		q.Subject,
		q.Topic,
		q.Question,
		q.Difficulty,
		q.Status,
		q.AttachmentFilename,
		q.AttachmentPath,
		q.CreatedBy,
		q.CreatedAt,
		q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		return types.Question{}, err
	}
	return q, nil
}

// Update writes the mutable fields of the row and stamps the updater. The
// caller resolves partial updates against the current row first.
func (r *QuestionRepository) Update(ctx context.Context, q types.Question, updatedBy int) (types.Question, error) {
	q.UpdatedBy = &updatedBy
	q.UpdatedAt = time.Now()

	const query = `
		UPDATE questions
		SET subject = $1,
			topic = $2,
			question = $3,
			difficulty = $4,
			status = $5,
			attachment_filename = $6,
			attachment_path = $7,
			updated_by = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		q.Subject,
		q.Topic,
		q.Question,
		q.Difficulty,
		q.Status,
		q.AttachmentFilename,
		q.AttachmentPath,
		q.UpdatedBy,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return types.Question{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Question{}, err
	}
	if affected == 0 {
		return types.Question{}, ErrNotFound
	}

	return q, nil
}

// SoftDelete flags the row as deleted and stamps the updater.
func (r *QuestionRepository) SoftDelete(ctx context.Context, id, updatedBy int) error {
	const query = `
		UPDATE questions
		SET is_deleted = TRUE,
			updated_by = $1,
			updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, updatedBy, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus is the restricted single-field update used by the status
// endpoint.
func (r *QuestionRepository) SetStatus(ctx context.Context, id int, status types.Status, updatedBy int) (types.Question, error) {
	const query = `
		UPDATE questions
		SET status = $1,
			updated_by = $2,
			updated_at = $3
		WHERE id = $4 AND is_deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, status, updatedBy, time.Now(), id)
	if err != nil {
		return types.Question{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Question{}, err
	}
	if affected == 0 {
		return types.Question{}, ErrNotFound
	}

	return r.Get(ctx, id, false)
}
