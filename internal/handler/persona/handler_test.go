package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aegatekeeper/backend/internal/model/persona"
)

func TestListPersonas(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var personas []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &personas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(personas) == 0 {
		t.Fatal("no personas listed")
	}

	found := false
	for _, p := range personas {
		if p.ID == persona.DefaultID {
			found = true
		}
	}
	if !found {
		t.Errorf("default persona missing from listing")
	}

	if strings.Contains(resp.Body.String(), "DEBIT_TOKENS") {
		t.Error("system prompt leaked into the persona listing")
	}
}
