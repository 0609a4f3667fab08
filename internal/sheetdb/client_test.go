package sheetdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   map[string]any
	auth   string
}

func newTestServer(t *testing.T, status int, response string, calls *[]recorded) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: map[string]string{}, auth: r.Header.Get("Authorization")}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.body)
			}
		}
		*calls = append(*calls, rec)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
}

func TestSearchBuildsQueryAndDecodesRows(t *testing.T) {
	var calls []recorded
	srv := newTestServer(t, http.StatusOK, `[{"cpf":"52998224725","nome":"Ana","order":3,"vazio":null}]`, &calls)
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/api/v1/abc/", Token: "segredo"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rows, err := c.Search(context.Background(), "Patients", map[string]string{"cpf": "52998224725"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("esperado 1 chamada, got %d", len(calls))
	}
	call := calls[0]
	if call.method != http.MethodGet || call.path != "/api/v1/abc/search" {
		t.Fatalf("requisição inesperada: %s %s", call.method, call.path)
	}
	if call.query["sheet"] != "Patients" || call.query["cpf"] != "52998224725" {
		t.Fatalf("query inesperada: %+v", call.query)
	}
	if call.auth != "Bearer segredo" {
		t.Fatalf("authorization ausente: %q", call.auth)
	}

	if len(rows) != 1 || rows[0]["nome"] != "Ana" || rows[0]["order"] != "3" || rows[0]["vazio"] != "" {
		t.Fatalf("linhas inesperadas: %+v", rows)
	}
}

func TestCreateAndPatchBodies(t *testing.T) {
	var calls []recorded
	srv := newTestServer(t, http.StatusCreated, `{"created":1}`, &calls)
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if err := c.Create(ctx, "LinkTokens", rowstore.Row{"token": "abc"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.PatchBy(ctx, "Patients", "cpf", "52998224725", rowstore.Row{"BDI": "não"}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	create := calls[0]
	if create.method != http.MethodPost || create.query["sheet"] != "LinkTokens" {
		t.Fatalf("create inesperado: %+v", create)
	}
	data, ok := create.body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("corpo de criação inesperado: %+v", create.body)
	}

	patch := calls[1]
	if patch.method != http.MethodPatch || patch.path != "/cpf/52998224725" || patch.query["sheet"] != "Patients" {
		t.Fatalf("patch inesperado: %+v", patch)
	}
	fields, ok := patch.body["data"].(map[string]any)
	if !ok || fields["BDI"] != "não" {
		t.Fatalf("corpo do patch inesperado: %+v", patch.body)
	}
}

func TestNonSuccessBecomesStoreError(t *testing.T) {
	var calls []recorded
	srv := newTestServer(t, http.StatusTooManyRequests, "limite", &calls)
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "Tests", map[string]string{"active": "sim"})

	var se *rowstore.StoreError
	if !errors.As(err, &se) || !errors.Is(err, rowstore.ErrStore) {
		t.Fatalf("esperado StoreError, got %v", err)
	}
	if se.Status != http.StatusTooManyRequests || se.Body != "limite" {
		t.Fatalf("detalhes inesperados: %+v", se)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("esperado erro sem base url")
	}
	if _, err := New(Config{BaseURL: "sheetdb.io/api"}); err == nil {
		t.Fatal("esperado erro sem protocolo")
	}
}
