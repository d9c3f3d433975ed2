package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/generate"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/newsletter"
	"github.com/starford/ansuz/internal/testutil"
)

type stubRenderer struct{}

func (stubRenderer) RenderPDF(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

// testEnv sets up a temp SQLite store, service and router.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*newsletter.Service, http.Handler, uuid.UUID) {
	t.Helper()

	db := testutil.TestStore(t)
	userID := testutil.SeedUser(t, db, "editor@example.com", "Tech")

	svc := newsletter.NewService(newsletter.Deps{
		Store:     db,
		Generator: &generate.MockClient{},
		Renderer:  stubRenderer{},
	})
	router := NewRouter(svc, authToken != "", authToken, nil, "")
	return svc, router, userID
}

// generateOne seeds a newsletter through the service layer and returns
// the created record.
func generateOne(t *testing.T, svc *newsletter.Service, title string) *models.Newsletter {
	t.Helper()
	n, err := svc.Generate(context.Background(), title, "Tech", []models.Article{
		{Title: "Go 1.25 released", Summary: "The Go team announced the release."},
	})
	if err != nil {
		t.Fatalf("seed newsletter: %v", err)
	}
	return n
}

func TestGenerateAndSaveReturnsPDF(t *testing.T) {
	_, router, _ := testEnv(t, "")

	body, _ := json.Marshal(GenerateRequest{
		Title:    "Weekly Digest",
		Category: "Tech",
		Articles: []ArticleInput{{Title: "Go 1.25 released", Summary: "The Go team announced the release."}},
	})
	req := httptest.NewRequest(http.MethodPost, "/newsletters/generate-and-save", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `inline; filename="Weekly Digest.pdf"`
	if cd := w.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("Content-Disposition = %q, want %q", cd, want)
	}
	if w.Body.Len() == 0 {
		t.Error("empty PDF body")
	}
}

func TestGenerateAndList(t *testing.T) {
	svc, router, userID := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")
	if n.Status != models.StatusNotSent {
		t.Errorf("status = %q, want not_sent", n.Status)
	}

	req := httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	req.Header.Set("X-User-ID", userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NewsletterListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestListRequiresCallerHeader(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("list without caller = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	req.Header.Set("X-User-ID", "not-a-uuid")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("list with bad caller = %d, want 400", w.Code)
	}
}

func TestGenerateRejectsEmptyArticles(t *testing.T) {
	_, router, _ := testEnv(t, "")

	body, _ := json.Marshal(GenerateRequest{Title: "Empty", Category: "Tech"})
	req := httptest.NewRequest(http.MethodPost, "/newsletters/generate-and-save", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty articles = %d, want 400", w.Code)
	}
}

func TestDownloadPDFHeaders(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	req := httptest.NewRequest(http.MethodGet, "/newsletters/"+n.ID.String()+"/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("download = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `inline; filename="Weekly Digest.pdf"`
	if cd := w.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("Content-Disposition = %q, want %q", cd, want)
	}
	if w.Body.Len() == 0 {
		t.Error("empty PDF body")
	}

	// Conditional request with the returned ETag short-circuits to 304.
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}
	req = httptest.NewRequest(http.MethodGet, "/newsletters/"+n.ID.String()+"/download", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional download = %d, want 304", w.Code)
	}
}

func TestDownloadUnknownID(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/newsletters/"+uuid.NewString()+"/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing newsletter = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/newsletters/not-a-uuid/download", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", w.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	body, _ := json.Marshal(StatusRequest{Status: "approved"})
	req := httptest.NewRequest(http.MethodPatch, "/newsletters/"+n.ID.String()+"/status", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status update = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.Newsletter
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	body, _ := json.Marshal(StatusRequest{Status: "archived"})
	req := httptest.NewRequest(http.MethodPatch, "/newsletters/"+n.ID.String()+"/status", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", w.Code)
	}
}

func TestDeleteNewsletter(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	req := httptest.NewRequest(http.MethodDelete, "/newsletters/"+n.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d, want 200", w.Code)
	}
	var resp messageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message != "Newsletter deleted." {
		t.Errorf("message = %q", resp.Message)
	}

	// Download should now 404.
	req = httptest.NewRequest(http.MethodGet, "/newsletters/"+n.ID.String()+"/download", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("download after delete = %d, want 404", w.Code)
	}
}

func TestSendNewsletter(t *testing.T) {
	svc, router, userID := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	body, _ := json.Marshal(SendRequest{UserIDs: []uuid.UUID{userID}})
	req := httptest.NewRequest(http.MethodPost, "/newsletters/"+n.ID.String()+"/send", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("send = %d, body = %s", w.Code, w.Body.String())
	}
	var resp messageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	want := "Newsletter sent to 1 user(s)."
	if resp.Message != want {
		t.Errorf("message = %q, want %q", resp.Message, want)
	}
}

func TestSendEmptyRecipients(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	n := generateOne(t, svc, "Weekly Digest")

	body, _ := json.Marshal(SendRequest{})
	req := httptest.NewRequest(http.MethodPost, "/newsletters/"+n.ID.String()+"/send", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty recipients = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, userID := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	req.Header.Set("X-User-ID", userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/newsletters", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	db := testutil.TestStore(t)
	svc := newsletter.NewService(newsletter.Deps{Store: db, Generator: &generate.MockClient{}, Renderer: stubRenderer{}})
	router := NewRouter(svc, true, "secret", sseStub(), "")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	db := testutil.TestStore(t)
	svc := newsletter.NewService(newsletter.Deps{Store: db, Generator: &generate.MockClient{}, Renderer: stubRenderer{}})
	router := NewRouter(svc, true, "tok", sseStub(), "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Flyer serving tests.

func TestServeFlyer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tech.png"), []byte("fake-png-data"), 0o644); err != nil {
		t.Fatal(err)
	}

	db := testutil.TestStore(t)
	svc := newsletter.NewService(newsletter.Deps{Store: db, Generator: &generate.MockClient{}, Renderer: stubRenderer{}})
	router := NewRouter(svc, false, "", nil, dir)

	req := httptest.NewRequest(http.MethodGet, "/flyers/tech.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve flyer = %d", w.Code)
	}
	if w.Body.String() != "fake-png-data" {
		t.Error("flyer content mismatch")
	}

	req = httptest.NewRequest(http.MethodGet, "/flyers/nope.png", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing flyer = %d, want 404", w.Code)
	}
}

func TestServeFlyer_TraversalBlocked(t *testing.T) {
	fh := NewFlyerHandler(t.TempDir())
	r := NewRouter(newsletter.NewService(newsletter.Deps{Store: testutil.TestStore(t), Generator: &generate.MockClient{}, Renderer: stubRenderer{}}), false, "", nil, fh.root)

	for _, name := range []string{"../secret.png", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/flyers/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		// chi may not route the traversal paths at all (404), or the handler rejects (400).
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}
