package homework_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/homework"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

type mockRepo struct {
	items []homework.Homework
	fail  error
}

func (m *mockRepo) List(ctx context.Context) ([]homework.Homework, error) {
	return m.items, m.fail
}

func (m *mockRepo) Create(ctx context.Context, hw *homework.Homework) error {
	if m.fail != nil {
		return m.fail
	}
	m.items = append([]homework.Homework{*hw}, m.items...)
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.fail != nil {
		return m.fail
	}
	for i, hw := range m.items {
		if hw.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return homework.ErrNotFound
}

type tokenResolver map[string]session.State

func (t tokenResolver) Resolve(ctx context.Context, token string) session.State {
	return t[token]
}

func as(id, role string) session.State {
	return session.State{
		Status:    session.Authenticated,
		Principal: &models.Principal{ID: id},
		Profile:   &models.Profile{ID: id, Role: role},
	}
}

func newServer(repo *mockRepo) http.Handler {
	resolver := tokenResolver{
		"student": as("s1", models.RoleStudent),
		"teacher": as("t1", " TEACHER"),
		"admin":   as("a1", models.RoleAdmin),
	}
	return homework.SetupRoutes(homework.NewHandler(repo), resolver, access.DefaultHierarchy)
}

func call(srv http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestListHomework(t *testing.T) {
	repo := &mockRepo{}
	srv := newServer(repo)

	if rec := call(srv, http.MethodGet, "/", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec := call(srv, http.MethodGet, "/", "student", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}

	repo.fail = errors.New("db down")
	if rec := call(srv, http.MethodGet, "/", "student", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestCreateHomework(t *testing.T) {
	repo := &mockRepo{}
	srv := newServer(repo)

	rec := call(srv, http.MethodPost, "/", "teacher",
		`{"title":"  Essay ","description":"500 words","attachments":["/uploads/a.pdf"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var hw homework.Homework
	if err := json.Unmarshal(rec.Body.Bytes(), &hw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if hw.ID == "" || hw.Title != "Essay" || hw.CreatedBy != "t1" {
		t.Errorf("unexpected homework: %+v", hw)
	}
	if len(hw.Attachments) != 1 || hw.Attachments[0] != "/uploads/a.pdf" {
		t.Errorf("unexpected attachments: %v", hw.Attachments)
	}
	if len(repo.items) != 1 {
		t.Errorf("expected one stored item, got %d", len(repo.items))
	}
}

func TestCreateHomeworkRejections(t *testing.T) {
	tests := []struct {
		name  string
		token string
		body  string
		want  int
	}{
		{"anonymous", "", `{"title":"x"}`, http.StatusUnauthorized},
		{"student", "student", `{"title":"x"}`, http.StatusForbidden},
		{"blank title", "teacher", `{"title":"   "}`, http.StatusBadRequest},
		{"missing title", "teacher", `{"description":"d"}`, http.StatusBadRequest},
		{"empty attachment", "teacher", `{"title":"x","attachments":[""]}`, http.StatusBadRequest},
		{"malformed", "teacher", `{"title":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			rec := call(newServer(repo), http.MethodPost, "/", tt.token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if len(repo.items) != 0 {
				t.Error("rejected request must not store anything")
			}
		})
	}
}

func TestDeleteHomework(t *testing.T) {
	repo := &mockRepo{items: []homework.Homework{{ID: "h1", Title: "Essay"}}}
	srv := newServer(repo)

	if rec := call(srv, http.MethodDelete, "/h1", "student", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for student, got %d", rec.Code)
	}
	if rec := call(srv, http.MethodDelete, "/h1", "admin", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for admin, got %d", rec.Code)
	}
	if rec := call(srv, http.MethodDelete, "/h1", "admin", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}
