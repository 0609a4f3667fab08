package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/session"
)

type stubSessions struct {
	items map[string]*patient.Session
}

func (s stubSessions) Session(ctx context.Context, id string) (*patient.Session, error) {
	if sess, ok := s.items[id]; ok {
		return sess, nil
	}
	return nil, session.ErrNotFound
}

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthLoadsSession(t *testing.T) {
	jwtMgr := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	sessions := stubSessions{items: map[string]*patient.Session{"s1": patient.NewSession("s1", "ana")}}

	var got *patient.Session
	h := Auth(jwtMgr, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
		if GetUser(r.Context()) != "ana" || GetSubject(r.Context()) != "s1" {
			t.Errorf("contexto inesperado")
		}
	}))

	token, _, err := jwtMgr.GenerateAccessToken("s1", "ana")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got == nil || got.ID != "s1" {
		t.Fatalf("esperava sessão carregada, status %d", rec.Code)
	}

	closed, _, _ := jwtMgr.GenerateAccessToken("s2", "ana")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+closed)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sessão encerrada deveria dar 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sem token deveria dar 401, got %d", rec.Code)
	}
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"https://painel.example.com", "*.clinica.com.br"})(http.HandlerFunc(okHandler))
	cases := map[string]bool{
		"https://painel.example.com": true,
		"https://app.clinica.com.br": true,
		"https://clinica.com.br":     false,
		"https://evil.com":           false,
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin") == origin; got != want {
			t.Errorf("%s: esperava %v", origin, want)
		}
	}
}

func TestIPRateLimit(t *testing.T) {
	h := IPRateLimit(NewRateLimiter(0.001, 2))(http.HandlerFunc(okHandler))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("códigos inesperados: %v", codes)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("esperava 500, got %d", rec.Code)
	}
}
