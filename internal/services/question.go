package services

import (
	"context"

	"github.com/qbank-io/apiserver/types"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	List(ctx context.Context, filter types.QuestionFilter, offset, limit int) ([]types.Question, error)
	Count(ctx context.Context, filter types.QuestionFilter) (int, error)
	Get(ctx context.Context, id int, includeDeleted bool) (types.Question, error)
	Create(ctx context.Context, question types.Question) (types.Question, error)
	Update(ctx context.Context, question types.Question, updatedBy int) (types.Question, error)
	SoftDelete(ctx context.Context, id, updatedBy int) error
	SetStatus(ctx context.Context, id int, status types.Status, updatedBy int) (types.Question, error)
}

// QuestionService encapsulates the question lifecycle: creation defaults to
// prod, edits without an explicit status fall back to devmt, deletion is soft.
type QuestionService struct {
	repo QuestionRepository
}

func NewQuestionService(repo QuestionRepository) *QuestionService {
	return &QuestionService{repo: repo}
}

// List returns a page of questions plus the total count for the same filter.
func (s *QuestionService) List(ctx context.Context, filter types.QuestionFilter, offset, limit int) ([]types.Question, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	questions, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// ListForExport returns up to max non-deleted questions in one page. Bulk
// export carries its own cap and must not be cut down to the page-size clamp.
func (s *QuestionService) ListForExport(ctx context.Context, max int) ([]types.Question, error) {
	return s.repo.List(ctx, types.QuestionFilter{}, 0, max)
}

func (s *QuestionService) Get(ctx context.Context, id int, includeDeleted bool) (types.Question, error) {
	return s.repo.Get(ctx, id, includeDeleted)
}

// Create stores a new question. Status defaults to prod unless the caller
// supplied one.
func (s *QuestionService) Create(ctx context.Context, question types.Question, createdBy int) (types.Question, error) {
	question.CreatedBy = createdBy
	if question.Status == "" {
		question.Status = types.StatusProd
	}
	return s.repo.Create(ctx, question)
}

// ApplyUpdate resolves a partial update against the current question. Fields
// absent from the update are untouched; an absent status resets the question
// to devmt, since any edit takes it out of production until re-approved.
func ApplyUpdate(question types.Question, update types.QuestionUpdate) types.Question {
	if update.Subject != nil {
		question.Subject = *update.Subject
	}
	if update.Topic != nil {
		question.Topic = *update.Topic
	}
	if update.Question != nil {
		question.Question = *update.Question
	}
	if update.Difficulty != nil {
		question.Difficulty = *update.Difficulty
	}
	if update.Status != nil {
		question.Status = *update.Status
	} else {
		question.Status = types.StatusDevmt
	}
	if update.AttachmentFilename != nil {
		question.AttachmentFilename = update.AttachmentFilename
	}
	if update.AttachmentPath != nil {
		question.AttachmentPath = update.AttachmentPath
	}
	return question
}

// Update applies a partial update and stamps the updater.
func (s *QuestionService) Update(ctx context.Context, id int, update types.QuestionUpdate, updatedBy int) (types.Question, error) {
	current, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return types.Question{}, err
	}
	return s.repo.Update(ctx, ApplyUpdate(current, update), updatedBy)
}

// SoftDelete flags the question as deleted; the row stays addressable by ID.
func (s *QuestionService) SoftDelete(ctx context.Context, id, updatedBy int) error {
	return s.repo.SoftDelete(ctx, id, updatedBy)
}

// SetStatus changes only the publication status.
func (s *QuestionService) SetStatus(ctx context.Context, id int, status types.Status, updatedBy int) (types.Question, error) {
	return s.repo.SetStatus(ctx, id, status, updatedBy)
}
