package services

import (
	"context"
	"testing"

	"github.com/qbank-io/apiserver/internal/store"
	"github.com/qbank-io/apiserver/types"
)

type fakeQuestionRepo struct {
	questions map[int]types.Question
	nextID    int

	lastListLimit int
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[int]types.Question), nextID: 1}
}

func (f *fakeQuestionRepo) List(ctx context.Context, filter types.QuestionFilter, offset, limit int) ([]types.Question, error) {
	f.lastListLimit = limit
	var out []types.Question
	for _, q := range f.questions {
		if q.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeQuestionRepo) Count(ctx context.Context, filter types.QuestionFilter) (int, error) {
	total := 0
	for _, q := range f.questions {
		if q.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		total++
	}
	return total, nil
}

func (f *fakeQuestionRepo) Get(ctx context.Context, id int, includeDeleted bool) (types.Question, error) {
	q, ok := f.questions[id]
	if !ok || (q.IsDeleted && !includeDeleted) {
		return types.Question{}, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question types.Question) (types.Question, error) {
	question.ID = f.nextID
	f.nextID++
	f.questions[question.ID] = question
	return question, nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, question types.Question, updatedBy int) (types.Question, error) {
	if _, ok := f.questions[question.ID]; !ok {
		return types.Question{}, store.ErrNotFound
	}
	question.UpdatedBy = &updatedBy
	f.questions[question.ID] = question
	return question, nil
}

func (f *fakeQuestionRepo) SoftDelete(ctx context.Context, id, updatedBy int) error {
	q, ok := f.questions[id]
	if !ok || q.IsDeleted {
		return store.ErrNotFound
	}
	q.IsDeleted = true
	q.UpdatedBy = &updatedBy
	f.questions[id] = q
	return nil
}

func (f *fakeQuestionRepo) SetStatus(ctx context.Context, id int, status types.Status, updatedBy int) (types.Question, error) {
	q, ok := f.questions[id]
	if !ok || q.IsDeleted {
		return types.Question{}, store.ErrNotFound
	}
	q.Status = status
	q.UpdatedBy = &updatedBy
	f.questions[id] = q
	return q, nil
}

func TestCreateDefaultsStatusToProd(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := NewQuestionService(repo)

	created, err := service.Create(context.Background(), types.Question{
		Subject:    "Math",
		Topic:      "Algebra",
		Question:   "What is x?",
		Difficulty: types.DifficultyEasy,
	}, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != types.StatusProd {
		t.Fatalf("expected default status prod, got %s", created.Status)
	}
	if created.CreatedBy != 3 {
		t.Fatalf("expected creator stamp 3, got %d", created.CreatedBy)
	}

	explicit, err := service.Create(context.Background(), types.Question{
		Subject:    "Math",
		Topic:      "Algebra",
		Question:   "What is y?",
		Difficulty: types.DifficultyEasy,
		Status:     types.StatusDevmt,
	}, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if explicit.Status != types.StatusDevmt {
		t.Fatalf("explicit status overridden: %s", explicit.Status)
	}
}

func TestApplyUpdatePartialFields(t *testing.T) {
	current := types.Question{
		Subject:    "Math",
		Topic:      "Algebra",
		Question:   "What is x?",
		Difficulty: types.DifficultyEasy,
		Status:     types.StatusProd,
	}

	topic := "Geometry"
	status := types.StatusProd
	updated := ApplyUpdate(current, types.QuestionUpdate{Topic: &topic, Status: &status})

	if updated.Topic != "Geometry" {
		t.Fatalf("topic not applied: %s", updated.Topic)
	}
	if updated.Subject != "Math" || updated.Question != "What is x?" || updated.Difficulty != types.DifficultyEasy {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.Status != types.StatusProd {
		t.Fatalf("explicit status not kept: %s", updated.Status)
	}
}

func TestApplyUpdateWithoutStatusFallsBackToDevmt(t *testing.T) {
	current := types.Question{Subject: "Math", Status: types.StatusProd}

	subject := "Physics"
	updated := ApplyUpdate(current, types.QuestionUpdate{Subject: &subject})

	if updated.Status != types.StatusDevmt {
		t.Fatalf("edit without status should reset to devmt, got %s", updated.Status)
	}
}

func TestUpdateStampsUpdater(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := NewQuestionService(repo)

	created, err := service.Create(context.Background(), types.Question{
		Subject: "Math", Topic: "Algebra", Question: "x?", Difficulty: types.DifficultyEasy,
	}, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	subject := "Physics"
	updated, err := service.Update(context.Background(), created.ID, types.QuestionUpdate{Subject: &subject}, 9)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != 9 {
		t.Fatalf("updater not stamped: %+v", updated.UpdatedBy)
	}
}

func TestSoftDeletedQuestionIsNotFound(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := NewQuestionService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, types.Question{
		Subject: "Math", Topic: "Algebra", Question: "x?", Difficulty: types.DifficultyEasy,
	}, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.SoftDelete(ctx, created.ID, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := service.Get(ctx, created.ID, false); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after soft delete, got %v", err)
	}
	if _, err := service.Get(ctx, created.ID, true); err != nil {
		t.Fatalf("deleted row should stay addressable with includeDeleted: %v", err)
	}
}

func TestListClampsLimit(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := NewQuestionService(repo)
	ctx := context.Background()

	if _, _, err := service.List(ctx, types.QuestionFilter{}, 0, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastListLimit != defaultListLimit {
		t.Fatalf("expected default limit %d, got %d", defaultListLimit, repo.lastListLimit)
	}

	if _, _, err := service.List(ctx, types.QuestionFilter{}, 0, 10_000); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastListLimit != maxListLimit {
		t.Fatalf("expected clamped limit %d, got %d", maxListLimit, repo.lastListLimit)
	}
}

func TestListForExportBypassesClamp(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := NewQuestionService(repo)

	if _, err := service.ListForExport(context.Background(), 10_000); err != nil {
		t.Fatalf("list for export: %v", err)
	}
	if repo.lastListLimit != 10_000 {
		t.Fatalf("export cap must reach the repository unclamped, got %d", repo.lastListLimit)
	}
}
