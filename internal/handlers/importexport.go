package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qbank-io/apiserver/internal/services"
	"github.com/qbank-io/apiserver/types"
)

const (
	maxImportBytes    = 16 << 20
	exportCap         = 10000
	maxReportedErrors = 5
)

// ImportExportHandler provides bulk JSON import and export of questions.
type ImportExportHandler struct {
	questionService *services.QuestionService
	recorder        *services.Recorder
}

func NewImportExportHandler(questionService *services.QuestionService, recorder *services.Recorder) *ImportExportHandler {
	return &ImportExportHandler{
		questionService: questionService,
		recorder:        recorder,
	}
}

// ImportQuestion is one element of the import/export document.
type ImportQuestion struct {
	Subject    string           `json:"subject"`
	Topic      string           `json:"topic"`
	Question   string           `json:"question"`
	Difficulty types.Difficulty `json:"difficulty"`
	Attachment *string          `json:"attachment,omitempty"`
}

// QuestionsDocument is the import/export wire shape.
type QuestionsDocument struct {
	Questions []json.RawMessage `json:"questions"`
}

// ExportDocument mirrors QuestionsDocument with typed elements.
type ExportDocument struct {
	Questions []ImportQuestion `json:"questions"`
}

// ImportResponse summarizes a bulk import: per-item failures never abort the
// batch, so the count and the sampled errors describe partial success.
type ImportResponse struct {
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors,omitempty"`
	Message       string   `json:"message"`
}

// Import accepts a multipart JSON file shaped {"questions": [...]} and
// creates each valid element, collecting per-item errors.
func (h *ImportExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		writeError(w, http.StatusBadRequest, "file must be a JSON file")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc, err := ParseQuestionsDocument(content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imported := 0
	var importErrors []string
	for i, raw := range doc.Questions {
		item, err := ValidateImportItem(raw, i)
		if err != nil {
			importErrors = append(importErrors, err.Error())
			continue
		}

		created, err := h.questionService.Create(r.Context(), types.Question{
			Subject:            item.Subject,
			Topic:              item.Topic,
			Question:           item.Question,
			Difficulty:         item.Difficulty,
			AttachmentFilename: item.Attachment,
		}, user.ID)
		if err != nil {
			importErrors = append(importErrors, fmt.Sprintf("question %d: %v", i+1, err))
			continue
		}

		h.recorder.Record(r.Context(), services.Mutation{
			QuestionID: created.ID,
			User:       user,
			Action:     types.ActionImport,
			NewData:    created.Snapshot(),
			Summary:    fmt.Sprintf("Question imported: %s - %s", created.Subject, created.Topic),
		})
		imported++
	}

	if len(importErrors) > maxReportedErrors {
		importErrors = importErrors[:maxReportedErrors]
	}

	message := fmt.Sprintf("successfully imported %d questions", imported)
	if len(importErrors) > 0 {
		message += fmt.Sprintf(", %d errors occurred", len(doc.Questions)-imported)
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		ImportedCount: imported,
		Errors:        importErrors,
		Message:       message,
	})
}

// Export returns all non-deleted questions as a downloadable JSON document,
// excluding server-assigned identifiers and audit fields.
func (h *ImportExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.ListForExport(r.Context(), exportCap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export questions")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=questions_export.json")
	writeJSON(w, http.StatusOK, BuildExportDocument(questions))
}

// ParseQuestionsDocument decodes and shape-checks an import payload.
func ParseQuestionsDocument(content []byte) (QuestionsDocument, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(content, &probe); err != nil {
		return QuestionsDocument{}, errors.New("invalid JSON file")
	}
	rawQuestions, ok := probe["questions"]
	if !ok {
		return QuestionsDocument{}, errors.New(`invalid JSON format, expected {"questions": [...]}`)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawQuestions, &items); err != nil {
		return QuestionsDocument{}, errors.New("questions must be an array")
	}
	return QuestionsDocument{Questions: items}, nil
}

// ValidateImportItem decodes one import element and checks its required
// fields. index is zero-based; errors report one-based positions.
func ValidateImportItem(raw json.RawMessage, index int) (ImportQuestion, error) {
	var item ImportQuestion
	if err := json.Unmarshal(raw, &item); err != nil {
		return ImportQuestion{}, fmt.Errorf("question %d: malformed entry", index+1)
	}

	for _, field := range [...]struct {
		name  string
		value string
	}{
		{"subject", item.Subject},
		{"topic", item.Topic},
		{"question", item.Question},
		{"difficulty", string(item.Difficulty)},
	} {
		if strings.TrimSpace(field.value) == "" {
			return ImportQuestion{}, fmt.Errorf("question %d: missing required field '%s'", index+1, field.name)
		}
	}

	if !item.Difficulty.IsValid() {
		return ImportQuestion{}, fmt.Errorf("question %d: invalid difficulty '%s'", index+1, item.Difficulty)
	}

	return item, nil
}

// BuildExportDocument projects questions onto the import/export shape.
func BuildExportDocument(questions []types.Question) ExportDocument {
	items := make([]ImportQuestion, 0, len(questions))
	for _, q := range questions {
		items = append(items, ImportQuestion{
			Subject:    q.Subject,
			Topic:      q.Topic,
			Question:   q.Question,
			Difficulty: q.Difficulty,
			Attachment: q.AttachmentFilename,
		})
	}
	return ExportDocument{Questions: items}
}
