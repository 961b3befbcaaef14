//go:build !noswagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSwaggerDocServed(t *testing.T) {
	h := NewMux(&mockService{}, Options{Logger: zerolog.Nop(), DocsEnabled: true})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/chat") {
		t.Fatalf("doc.json missing /api/chat: %.200s", w.Body.String())
	}
}

func TestSwaggerDisabled(t *testing.T) {
	h := NewMux(&mockService{}, Options{Logger: zerolog.Nop()})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
