// Package patient contém o cadastro de pacientes e o controlador de sessão
// que decide entre criar e atualizar registros.
package patient

import (
	"strings"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Colunas fixas da aba Patients.
const (
	ColCPF            = "cpf"
	ColNome           = "nome"
	ColDataNascimento = "data_nascimento"
	ColEmail          = "email"
	ColWhatsApp       = "whatsapp"
	ColCreatedAt      = "created_at"

	completedSuffix = "_FEITO"

	flagSim = "sim"
	flagNao = "não"
)

var identityColumns = map[string]struct{}{
	ColCPF: {}, ColNome: {}, ColDataNascimento: {}, ColEmail: {}, ColWhatsApp: {}, ColCreatedAt: {},
}

// Record é o cadastro do paciente com as marcações já convertidas para booleanos.
type Record struct {
	CPF            string                   `json:"cpf"`
	Nome           string                   `json:"nome"`
	DataNascimento string                   `json:"data_nascimento"`
	Email          string                   `json:"email"`
	WhatsApp       string                   `json:"whatsapp"`
	CreatedAt      string                   `json:"created_at"`
	Instruments    map[string]catalog.Flags `json:"instruments"`
}

// Flags implementa catalog.FlagSource. Receptor nil devolve marcações vazias.
func (r *Record) Flags(code string) catalog.Flags {
	if r == nil || r.Instruments == nil {
		return catalog.Flags{}
	}
	return r.Instruments[code]
}

// FromRow converte a linha da planilha. Toda coluna fora das fixas é tratada
// como código de instrumento ("<code>" ou "<code>_FEITO").
func FromRow(row rowstore.Row) *Record {
	rec := &Record{
		CPF:            strings.TrimSpace(row.Get(ColCPF)),
		Nome:           row.Get(ColNome),
		DataNascimento: firstN(row.Get(ColDataNascimento), 10),
		Email:          row.Get(ColEmail),
		WhatsApp:       row.Get(ColWhatsApp),
		CreatedAt:      row.Get(ColCreatedAt),
		Instruments:    make(map[string]catalog.Flags),
	}

	for col, val := range row {
		if _, fixed := identityColumns[col]; fixed {
			continue
		}
		if code, ok := strings.CutSuffix(col, completedSuffix); ok && code != "" {
			f := rec.Instruments[code]
			f.Completed = isSim(val)
			rec.Instruments[code] = f
			continue
		}
		f := rec.Instruments[col]
		f.Authorized = isSim(val)
		rec.Instruments[col] = f
	}
	return rec
}

// CompletedColumn devolve o nome da coluna de conclusão do instrumento.
func CompletedColumn(code string) string {
	return code + completedSuffix
}

func isSim(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), flagSim)
}

func flag(b bool) string {
	if b {
		return flagSim
	}
	return flagNao
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
