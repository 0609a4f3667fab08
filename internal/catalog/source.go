package catalog

import (
	"strings"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

// SourceKey classifica quem responde ao instrumento.
type SourceKey string

const (
	SourcePaciente     SourceKey = "paciente"
	SourceFamiliares   SourceKey = "familiares"
	SourcePais         SourceKey = "pais"
	SourceProfissional SourceKey = "profissional"
	SourceProfessores  SourceKey = "professores"
	SourceOutros       SourceKey = "outros"
)

// NormalizeSourceLabel apara o texto livre da origem; vazio vira "Outros".
func NormalizeSourceLabel(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "Outros"
	}
	return s
}

// DeriveSourceKey aplica as regras de substring sem considerar acentos ou caixa.
// A primeira regra que casar vence.
func DeriveSourceKey(raw string) SourceKey {
	s := util.FoldAccents(raw)
	switch {
	case s == "":
		return SourceOutros
	case strings.HasPrefix(s, "paciente"):
		return SourcePaciente
	case strings.Contains(s, "famil"):
		return SourceFamiliares
	case strings.Contains(s, "pais"), strings.Contains(s, "cuidad"):
		return SourcePais
	case strings.Contains(s, "profis"):
		return SourceProfissional
	case strings.Contains(s, "prof"):
		return SourceProfessores
	}
	return SourceOutros
}
