package respond_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/syntaxarena/arena/internal/handler/respond"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()

	respond.Error(rec, http.StatusConflict, "session already completed")

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Errorf("content-type = %q", got)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"session already completed"}` {
		t.Errorf("body = %s", got)
	}
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"playerId":"p1"}`))

	var v struct {
		PlayerID string `json:"playerId"`
	}
	if err := respond.Decode(req, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.PlayerID != "p1" {
		t.Errorf("playerId = %q", v.PlayerID)
	}

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := respond.Decode(bad, &v); err == nil {
		t.Error("expected error for truncated body")
	}
}
