package http

import (
	"net/http"

	httpmiddleware "github.com/integradaneuropsicologia/sistemadeavaliacao/internal/http/middleware"
)

type loginPayload struct {
	Usuario string `json:"usuario"`
	Senha   string `json:"senha"`
}

// Login confere as credenciais na aba Auth e abre uma sessão.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Usuario, payload.Senha)
	if err != nil {
		writeServiceError(w, err, "Erro no login: ")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Logout descarta paciente corrente, modo e filtro.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), httpmiddleware.GetSubject(r.Context())); err != nil {
		writeServiceError(w, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// CurrentSession devolve o estado de trabalho.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, httpmiddleware.GetSession(r.Context()))
}
