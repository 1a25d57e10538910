package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/qbank-io/apiserver/types"
)

func TestParseQuestionsDocument(t *testing.T) {
	doc, err := ParseQuestionsDocument([]byte(`{"questions": [{"subject": "Math"}, {"subject": "Physics"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Questions) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.Questions))
	}

	if _, err := ParseQuestionsDocument([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
	if _, err := ParseQuestionsDocument([]byte(`{"items": []}`)); err == nil {
		t.Fatalf("expected error for missing questions key")
	}
	if _, err := ParseQuestionsDocument([]byte(`{"questions": {"a": 1}}`)); err == nil {
		t.Fatalf("expected error when questions is not an array")
	}
}

func TestValidateImportItem(t *testing.T) {
	good := json.RawMessage(`{"subject": "Math", "topic": "Algebra", "question": "What is x?", "difficulty": "easy"}`)
	item, err := ValidateImportItem(good, 0)
	if err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}
	if item.Subject != "Math" || item.Difficulty != types.DifficultyEasy {
		t.Fatalf("unexpected decode: %+v", item)
	}

	missing := json.RawMessage(`{"subject": "Math", "question": "What is x?", "difficulty": "easy"}`)
	_, err = ValidateImportItem(missing, 1)
	if err == nil {
		t.Fatalf("expected error for missing topic")
	}
	if !strings.Contains(err.Error(), "question 2") || !strings.Contains(err.Error(), "'topic'") {
		t.Fatalf("error should name the one-based position and the field: %v", err)
	}

	bad := json.RawMessage(`{"subject": "Math", "topic": "Algebra", "question": "x?", "difficulty": "brutal"}`)
	if _, err := ValidateImportItem(bad, 0); err == nil {
		t.Fatalf("expected error for invalid difficulty")
	}

	malformed := json.RawMessage(`"just a string"`)
	if _, err := ValidateImportItem(malformed, 2); err == nil {
		t.Fatalf("expected error for malformed entry")
	}
}

func TestBatchWithOneBadItemReportsOneError(t *testing.T) {
	doc, err := ParseQuestionsDocument([]byte(`{"questions": [
		{"subject": "Math", "topic": "Algebra", "question": "What is x?", "difficulty": "easy"},
		{"subject": "Math"}
	]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var valid int
	var errs []string
	for i, raw := range doc.Questions {
		if _, err := ValidateImportItem(raw, i); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		valid++
	}
	if valid != 1 || len(errs) != 1 {
		t.Fatalf("expected 1 valid and 1 error, got valid=%d errs=%v", valid, errs)
	}
	if !strings.Contains(errs[0], "missing required field") {
		t.Fatalf("error should name the missing field: %v", errs[0])
	}
}

func TestBuildExportDocumentRoundTrip(t *testing.T) {
	attachment := "diagram.png"
	questions := []types.Question{
		{
			ID:                 10,
			Subject:            "Math",
			Topic:              "Algebra",
			Question:           "What is x?",
			Difficulty:         types.DifficultyMedium,
			Status:             types.StatusProd,
			AttachmentFilename: &attachment,
		},
		{
			ID:         11,
			Subject:    "Physics",
			Topic:      "Optics",
			Question:   "What is light?",
			Difficulty: types.DifficultyHard,
			Status:     types.StatusDevmt,
		},
	}

	doc := BuildExportDocument(questions)
	if len(doc.Questions) != 2 {
		t.Fatalf("expected 2 exported items, got %d", len(doc.Questions))
	}
	if doc.Questions[0].Attachment == nil || *doc.Questions[0].Attachment != attachment {
		t.Fatalf("attachment filename lost in export: %+v", doc.Questions[0])
	}

	// The export must be directly re-importable.
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseQuestionsDocument(content)
	if err != nil {
		t.Fatalf("re-parse export: %v", err)
	}
	for i, raw := range parsed.Questions {
		if _, err := ValidateImportItem(raw, i); err != nil {
			t.Fatalf("exported item %d does not validate: %v", i, err)
		}
	}

	// Server-assigned fields never leak into the document.
	if strings.Contains(string(content), `"id"`) || strings.Contains(string(content), `"status"`) {
		t.Fatalf("export leaked server-side fields: %s", content)
	}
}
