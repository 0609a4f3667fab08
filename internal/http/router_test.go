package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/anamnese"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/config"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/monitor"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/obs"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/service"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/session"
)

const validCPF = "52998224725"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

type testServer struct {
	handler http.Handler
	store   *rowstore.Memory
	token   string
}

func newTestServer(t *testing.T, scriptURL string) *testServer {
	t.Helper()
	store := rowstore.NewMemory()
	tables := rowstore.DefaultTables()
	store.Seed(tables.Auth, rowstore.Row{"login": "equipe", "senha": "segredo"})
	store.Seed(tables.Tests,
		rowstore.Row{"code": "BAI", "label": "Inventário de Ansiedade", "order": "2", "active": "sim"},
		rowstore.Row{"code": "SRS2", "label": "SRS-2", "order": "1", "active": "sim", "source": "Heterorrelato"},
		rowstore.Row{"code": "OLD", "label": "Antigo", "active": "não"},
	)

	cfg := &config.Config{
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	logger := zerolog.Nop()
	loader := catalog.NewLoader(store, tables.Tests, nil, 0, logger)
	authSvc := service.NewAuthService(store, tables.Auth, session.NewMemory(), auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour))

	handler := NewRouter(Deps{
		Config:   cfg,
		Auth:     authSvc,
		Patients: patient.NewController(store, tables.Patients, loader, logger),
		Catalog:  loader,
		Links:    link.NewService(store, tables.Tokens, "https://portal.example/formularios", 0, logger),
		Anamnese: anamnese.New(anamnese.Config{ScriptURL: scriptURL}, logger),
		Monitor:  monitor.NewService(store, tables.Tests, monitor.Config{}, logger, nil),
		Metrics:  obs.New(),
		ReadyChecks: map[string]func(context.Context) error{
			"store": func(context.Context) error { return nil },
		},
	})
	return &testServer{handler: handler, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("resposta não é envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/auth/login", map[string]string{"usuario": "equipe", "senha": "segredo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login falhou: %d %s", rec.Code, rec.Body.String())
	}
	var res service.LoginResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	s.token = res.AccessToken
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, "")
	if rec, _ := srv.do(t, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec, _ := srv.do(t, http.MethodGet, "/ready", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, "")

	rec, env := srv.do(t, http.MethodPost, "/auth/login", map[string]string{"usuario": "equipe", "senha": "errada"})
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Message != "Usuário ou senha inválidos." {
		t.Fatalf("esperava 401 genérico, got %d %+v", rec.Code, env.Error)
	}

	rec, env = srv.do(t, http.MethodPost, "/auth/login", map[string]string{"usuario": "equipe"})
	if rec.Code != http.StatusBadRequest || env.Error.Message != "Preencha usuário e senha." {
		t.Fatalf("esperava 400, got %d %+v", rec.Code, env.Error)
	}

	if rec, _ := srv.do(t, http.MethodGet, "/catalog", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("rota privada sem token deveria dar 401, got %d", rec.Code)
	}
}

func TestPatientFlow(t *testing.T) {
	srv := newTestServer(t, "")
	srv.login(t)

	rec, env := srv.do(t, http.MethodGet, "/patients/"+validCPF, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup: %d %s", rec.Code, rec.Body.String())
	}
	var lookup lookupResponse
	if err := json.Unmarshal(env.Data, &lookup); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	if lookup.Found || lookup.Mode != patient.ModeCreate || lookup.Message != patient.MsgNotFound {
		t.Fatalf("lookup inesperado: %+v", lookup.LookupResult)
	}
	if lookup.Grid == nil || len(lookup.Grid.Items) != 2 || lookup.Grid.Items[0].Code != "SRS2" {
		t.Fatalf("grade inesperada: %+v", lookup.Grid)
	}

	rec, _ = srv.do(t, http.MethodPost, "/patients", patient.SaveInput{
		Form: patient.Form{
			CPF: validCPF, Nome: "Maria Silva", DataNascimento: "1990-05-20",
			Email: "maria@example.com", WhatsApp: "(11) 98765-4321",
		},
		Authorize: []string{"BAI"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}
	rows := srv.store.Rows("Patients")
	if len(rows) != 1 || rows[0].Get("BAI") != "sim" || rows[0].Get("SRS2") != "não" || rows[0].Get("whatsapp") != "+5511987654321" {
		t.Fatalf("linha inesperada: %+v", rows)
	}

	rec, env = srv.do(t, http.MethodPut, "/session/filter", map[string]string{"filter": "ja"})
	if rec.Code != http.StatusOK {
		t.Fatalf("filtro: %d %s", rec.Code, rec.Body.String())
	}
	var g grid
	if err := json.Unmarshal(env.Data, &g); err != nil {
		t.Fatalf("decode grade: %v", err)
	}
	if len(g.Items) != 1 || g.Items[0].Code != "BAI" || !g.Items[0].CanRemove {
		t.Fatalf("grade filtrada inesperada: %+v", g.Items)
	}
	if g.Line != "Ativos: 2 • Cadastrar: 1 • Já: 1 • Preenchido: 0 • Filtro: Já registrados" {
		t.Fatalf("linha de resumo inesperada: %s", g.Line)
	}

	rec, env = srv.do(t, http.MethodPost, "/patients/"+validCPF+"/link", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("link: %d %s", rec.Code, rec.Body.String())
	}
	var lr linkResponse
	if err := json.Unmarshal(env.Data, &lr); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	if !lr.Created || !strings.HasPrefix(lr.URL, "https://portal.example/formularios?token=") {
		t.Fatalf("link inesperado: %+v", lr)
	}
	if !strings.Contains(lr.Message, "Maria Silva") {
		t.Fatalf("mensagem deveria usar o nome do paciente corrente: %s", lr.Message)
	}

	rec, env = srv.do(t, http.MethodPost, "/patients/"+validCPF+"/link", nil)
	var again linkResponse
	_ = json.Unmarshal(env.Data, &again)
	if rec.Code != http.StatusOK || again.Created || again.URL != lr.URL {
		t.Fatalf("segundo link deveria reaproveitar o token: %+v", again)
	}

	rec, _ = srv.do(t, http.MethodPost, "/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec, _ := srv.do(t, http.MethodGet, "/catalog", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token após logout deveria dar 401, got %d", rec.Code)
	}
}

func TestLookupValidation(t *testing.T) {
	srv := newTestServer(t, "")
	srv.login(t)

	rec, env := srv.do(t, http.MethodGet, "/patients/12345678900", nil)
	if rec.Code != http.StatusUnprocessableEntity || env.Error.Code != "VALIDATION" || env.Error.Message != "CPF inválido." {
		t.Fatalf("esperava 422, got %d %+v", rec.Code, env.Error)
	}
}

type failingStore struct {
	*rowstore.Memory
}

func (f failingStore) PatchBy(ctx context.Context, table rowstore.Table, column, value string, patch rowstore.Row) error {
	return &rowstore.StoreError{Op: "patch", Table: table, Status: 500, Body: "quota"}
}

func TestStoreErrorMapsTo502(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, failingStore{rowstore.NewMemory()}.PatchBy(context.Background(), "Patients", "cpf", validCPF, nil), "Erro ao salvar: ")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("esperava 502, got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Error.Code != "STORE" || !strings.HasPrefix(env.Error.Message, "Erro ao salvar: falha ao atualizar em Patients (status 500): quota") {
		t.Fatalf("erro inesperado: %+v", env.Error)
	}

	rec = httptest.NewRecorder()
	writeServiceError(rec, errors.New("x"), "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("esperava 500, got %d", rec.Code)
	}
}

func TestAnamneseDownload(t *testing.T) {
	script := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cpf") != validCPF {
			http.Error(w, "cpf", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer script.Close()

	srv := newTestServer(t, script.URL)
	srv.login(t)

	rec, _ := srv.do(t, http.MethodGet, "/patients/"+validCPF+"/anamnese", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("anamnese: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "anamnese-"+validCPF+".pdf") {
		t.Fatalf("content-disposition inesperado: %s", rec.Header().Get("Content-Disposition"))
	}
}

func TestPhoneFormatAndMonitor(t *testing.T) {
	srv := newTestServer(t, "")
	srv.login(t)

	rec, env := srv.do(t, http.MethodGet, "/phone/format?value=11987654321", nil)
	var phone map[string]string
	_ = json.Unmarshal(env.Data, &phone)
	if rec.Code != http.StatusOK || phone["display"] != "(11) 9 8765-4321" || phone["normalized"] != "+5511987654321" {
		t.Fatalf("telefone inesperado: %d %+v", rec.Code, phone)
	}

	rec, env = srv.do(t, http.MethodGet, "/monitor", nil)
	var st monitor.Status
	_ = json.Unmarshal(env.Data, &st)
	if rec.Code != http.StatusOK || st.Enabled || st.Last != nil {
		t.Fatalf("monitor inesperado: %d %+v", rec.Code, st)
	}
}
