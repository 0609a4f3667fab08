package link

import (
	"strings"
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Colunas da aba LinkTokens.
const (
	ColToken        = "token"
	ColCPF          = "cpf"
	ColCreatedAt    = "created_at"
	ColExpiresAt    = "expires_at"
	ColDisabled     = "disabled"
	ColUses         = "uses"
	ColLastAccessAt = "last_access_at"
)

// Token é um acesso do paciente ao portal de formulários.
type Token struct {
	Token        string    `json:"token"`
	CPF          string    `json:"cpf"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Disabled     bool      `json:"disabled"`
	Uses         string    `json:"uses"`
	LastAccessAt string    `json:"last_access_at"`

	// expiry guarda o texto original para distinguir vazio de ilegível.
	expiry string
}

// Active indica se o token pode ser reaproveitado no instante now.
// Data de expiração ilegível conta como expirada.
func (t Token) Active(now time.Time) bool {
	if t.Disabled {
		return false
	}
	if strings.TrimSpace(t.expiry) == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return t.ExpiresAt.After(now)
}

// FromRow decodifica uma linha da aba de tokens.
func FromRow(row rowstore.Row) Token {
	t := Token{
		Token:        row.Get(ColToken),
		CPF:          row.Get(ColCPF),
		Disabled:     strings.EqualFold(strings.TrimSpace(row.Get(ColDisabled)), "sim"),
		Uses:         row.Get(ColUses),
		LastAccessAt: row.Get(ColLastAccessAt),
		expiry:       row.Get(ColExpiresAt),
	}
	t.CreatedAt = parseTime(row.Get(ColCreatedAt))
	t.ExpiresAt = parseTime(t.expiry)
	return t
}

// ToRow produz a linha gravada na criação.
func (t Token) ToRow() rowstore.Row {
	disabled := "não"
	if t.Disabled {
		disabled = "sim"
	}
	uses := t.Uses
	if uses == "" {
		uses = "0"
	}
	return rowstore.Row{
		ColToken:        t.Token,
		ColCPF:          t.CPF,
		ColCreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		ColExpiresAt:    t.ExpiresAt.UTC().Format(time.RFC3339),
		ColDisabled:     disabled,
		ColUses:         uses,
		ColLastAccessAt: t.LastAccessAt,
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
