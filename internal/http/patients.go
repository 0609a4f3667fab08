package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	httpmiddleware "github.com/integradaneuropsicologia/sistemadeavaliacao/internal/http/middleware"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

type grid struct {
	catalog.RenderResult
	Line string `json:"line"`
}

// render projeta o catálogo para o paciente da sessão.
func (h *Handler) render(ctx context.Context, sess *patient.Session) (*grid, error) {
	cat, err := h.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	res := catalog.Render(cat, sess.FlagSource(), sess.Filter)
	return &grid{RenderResult: res, Line: res.Summary.Line()}, nil
}

func (h *Handler) persist(ctx context.Context, sess *patient.Session) {
	if err := h.auth.SaveSession(ctx, sess); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("falha ao salvar sessão")
	}
}

// Catalog devolve a grade. ?filter= troca o filtro da sessão.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	sess := httpmiddleware.GetSession(r.Context())
	if raw, ok := r.URL.Query()["filter"]; ok && len(raw) > 0 {
		sess.Filter = catalog.ParseFilter(raw[0])
		h.persist(r.Context(), sess)
	}

	g, err := h.render(r.Context(), sess)
	if err != nil {
		writeServiceError(w, err, "Erro ao carregar testes: ")
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

// ReloadCatalog invalida o cache e relê a aba Tests.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog.Reload(r.Context())
	if err != nil {
		writeServiceError(w, err, "Erro ao carregar testes: ")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"total": cat.Len(), "loaded_at": cat.LoadedAt()})
}

type filterPayload struct {
	Filter string `json:"filter"`
}

// SetFilter troca o filtro da grade e devolve a grade renderizada.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var payload filterPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	sess := httpmiddleware.GetSession(r.Context())
	sess.Filter = catalog.ParseFilter(payload.Filter)
	h.persist(r.Context(), sess)

	g, err := h.render(r.Context(), sess)
	if err != nil {
		writeServiceError(w, err, "Erro ao carregar testes: ")
		return
	}
	WriteJSON(w, http.StatusOK, g)
}

type lookupResponse struct {
	*patient.LookupResult
	Grid *grid `json:"grid,omitempty"`
}

// LookupPatient busca o CPF e troca o paciente corrente da sessão.
func (h *Handler) LookupPatient(w http.ResponseWriter, r *http.Request) {
	sess := httpmiddleware.GetSession(r.Context())
	res, err := h.patients.Lookup(r.Context(), sess, chi.URLParam(r, "cpf"))
	if err != nil {
		writeServiceError(w, err, "Erro ao buscar: ")
		return
	}
	h.persist(r.Context(), sess)

	out := lookupResponse{LookupResult: res}
	if g, err := h.render(r.Context(), sess); err == nil {
		out.Grid = g
	} else {
		log.Warn().Err(err).Msg("grade indisponível após busca")
	}
	WriteJSON(w, http.StatusOK, out)
}

// SavePatient cria ou atualiza o cadastro conforme o modo da sessão.
func (h *Handler) SavePatient(w http.ResponseWriter, r *http.Request) {
	var in patient.SaveInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sess := httpmiddleware.GetSession(r.Context())
	res, err := h.patients.Save(r.Context(), sess, in)
	if err != nil {
		writeServiceError(w, err, "Erro ao salvar: ")
		return
	}
	h.persist(r.Context(), sess)

	status := http.StatusOK
	if res.Outcome == patient.OutcomeCreated {
		status = http.StatusCreated
	}
	WriteJSON(w, status, res)
}

type linkPayload struct {
	Nome string `json:"nome"`
}

type linkResponse struct {
	URL       string `json:"url"`
	Message   string `json:"message"`
	Created   bool   `json:"created"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// PatientLink devolve o link do portal e o texto pronto para o WhatsApp.
func (h *Handler) PatientLink(w http.ResponseWriter, r *http.Request) {
	var payload linkPayload
	if r.ContentLength > 0 && !decodeJSON(w, r, &payload) {
		return
	}

	cpf := util.OnlyDigits(chi.URLParam(r, "cpf"))
	nome := strings.TrimSpace(payload.Nome)
	if sess := httpmiddleware.GetSession(r.Context()); nome == "" && sess.Patient != nil && sess.CPF == cpf {
		nome = sess.Patient.Nome
	}

	res, err := h.links.GetOrCreate(r.Context(), cpf)
	if err != nil {
		writeServiceError(w, err, "Erro ao gerar/copiar link: ")
		return
	}

	out := linkResponse{URL: res.URL, Message: link.Message(nome, res.URL), Created: res.Created}
	if !res.Token.ExpiresAt.IsZero() {
		out.ExpiresAt = res.Token.ExpiresAt.UTC().Format(time.RFC3339)
	}
	WriteJSON(w, http.StatusOK, out)
}

// Anamnese entrega o PDF gerado pelo script.
func (h *Handler) Anamnese(w http.ResponseWriter, r *http.Request) {
	doc, err := h.anamnese.Fetch(r.Context(), chi.URLParam(r, "cpf"))
	if err != nil {
		writeServiceError(w, err, "Erro: ")
		return
	}
	if doc.Archived != nil {
		w.Header().Set("X-Anamnese-URL", doc.Archived.URL)
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="anamnese-%s.pdf"`, doc.CPF))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// FormatPhone devolve o WhatsApp formatado para exibição e em E.164.
func (h *Handler) FormatPhone(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	WriteJSON(w, http.StatusOK, map[string]string{
		"display":    util.FormatPhoneDisplay(value),
		"normalized": util.NormalizePhone(value),
	})
}

// MonitorStatus devolve a última sondagem do armazenamento.
func (h *Handler) MonitorStatus(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		WriteJSON(w, http.StatusOK, map[string]bool{"enabled": false})
		return
	}
	WriteJSON(w, http.StatusOK, h.monitor.Status())
}
