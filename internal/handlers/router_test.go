package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/qbank-io/apiserver/types"
)

func stubAuth(user types.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
		})
	}
}

// The question routes share their group with the import/export and audit
// routes, which register first via With. Registration must not panic and
// every route must stay reachable.
func TestQuestionRoutesRegisterAfterSiblingRoutes(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("route registration panicked: %v", r)
		}
	}()

	auth := stubAuth(types.User{ID: 1, Username: "admin", Role: types.RoleAdmin, IsActive: true})
	questionHandler := NewQuestionHandler(nil, nil)
	importExportHandler := NewImportExportHandler(nil, nil)
	auditHandler := NewAuditHandler(nil, nil)

	router := chi.NewRouter()
	router.Route("/questions", func(r chi.Router) {
		r.With(auth, RequireEditor()).Post("/import", importExportHandler.Import)
		r.With(auth, RequireEditor()).Get("/export", importExportHandler.Export)
		r.With(auth, RequireEditor()).Get("/{questionID}/audit", auditHandler.ListRows)
		r.With(auth, RequireEditor()).Get("/{questionID}/audit/history", auditHandler.History)
		QuestionRouter(r, questionHandler, auth)
	})

	// An invalid id is rejected by the handler itself, proving the request
	// made it through routing and middleware without touching any service.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid question id, got %d", rec.Code)
	}
}

func TestQuestionMutationRoutesRequireEditor(t *testing.T) {
	auth := stubAuth(types.User{ID: 2, Username: "viewer", Role: types.RoleViewer, IsActive: true})
	questionHandler := NewQuestionHandler(nil, nil)

	router := chi.NewRouter()
	router.Route("/questions", func(r chi.Router) {
		QuestionRouter(r, questionHandler, auth)
	})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/questions"},
		{http.MethodPut, "/questions/1"},
		{http.MethodDelete, "/questions/1"},
		{http.MethodPut, "/questions/1/status"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403 for viewer, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
