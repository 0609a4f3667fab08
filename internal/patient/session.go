package patient

import (
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
)

// Mode indica se o próximo Save cria ou atualiza o cadastro.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Session é o estado de trabalho de uma pessoa logada: paciente corrente,
// modo e filtro da grade. É passado explicitamente ao controlador.
type Session struct {
	ID        string         `json:"id"`
	User      string         `json:"user"`
	Mode      Mode           `json:"mode"`
	CPF       string         `json:"cpf"`
	Patient   *Record        `json:"patient,omitempty"`
	Filter    catalog.Filter `json:"filter"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession cria sessão em modo de cadastro, sem paciente e sem filtro.
func NewSession(id, user string) *Session {
	return &Session{ID: id, User: user, Mode: ModeCreate, Filter: catalog.FilterTodos}
}

// Reset volta ao estado inicial, como no logout ou em nova busca.
func (s *Session) Reset() {
	s.Mode = ModeCreate
	s.CPF = ""
	s.Patient = nil
}

// FlagSource devolve o paciente corrente como fonte de marcações, ou nil.
func (s *Session) FlagSource() catalog.FlagSource {
	if s == nil || s.Patient == nil {
		return nil
	}
	return s.Patient
}
