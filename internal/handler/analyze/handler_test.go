package analyze

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	analyzeService "github.com/aegatekeeper/backend/internal/service/analyze"
)

func setupRouter() *chi.Mux {
	handler := New(
		analyzeService.NewWebsiteAnalyzer(nil, 2*time.Second),
		analyzeService.NewImageAnalyzer(nil),
	)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeImageFallsBack(t *testing.T) {
	resp := post(t, setupRouter(), "/analyze-image", `{"imageDataUrl":"data:image/png;base64,AAAA"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Description     string `json:"description"`
		FullDescription string `json:"fullDescription"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Description == "" || body.FullDescription == "" {
		t.Errorf("fallbacks missing: %s", resp.Body.String())
	}
}

func TestAnalyzeWebsiteDeadLinkStillOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resp := post(t, setupRouter(), "/analyze-website", `{"url":"`+url+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("dead link must still answer 200, got %d", resp.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" {
		t.Error("expected error field for dead link")
	}
}

func TestAnalyzeWebsiteMissingURL(t *testing.T) {
	resp := post(t, setupRouter(), "/analyze-website", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
