package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/anamnese"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/service"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeServiceError traduz erros de domínio para o envelope padrão. storePrefix
// antecede a mensagem de falhas do armazenamento ("Erro ao salvar: ").
func writeServiceError(w http.ResponseWriter, err error, storePrefix string) {
	var verr *patient.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", verr.Message, map[string]string{
			"field": verr.Field,
			"level": verr.Level,
		})
	case errors.Is(err, link.ErrInvalidCPF), errors.Is(err, anamnese.ErrInvalidCPF):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", "CPF inválido.", map[string]string{"field": "cpf", "level": "err"})
	case errors.Is(err, service.ErrMissingCredentials):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Preencha usuário e senha.", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "Usuário ou senha inválidos.", nil)
	case errors.Is(err, anamnese.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "Geração de anamnese não configurada.", nil)
	case errors.Is(err, rowstore.ErrStore):
		log.Error().Err(err).Msg("falha no armazenamento")
		WriteError(w, http.StatusBadGateway, "STORE", storePrefix+err.Error(), nil)
	default:
		log.Error().Err(err).Msg("erro inesperado")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}
