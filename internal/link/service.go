// Package link gera e reaproveita links de acesso do paciente ao portal.
package link

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

// DefaultTTL é a validade de um token recém-criado.
const DefaultTTL = 30 * 24 * time.Hour

// ErrInvalidCPF é devolvido antes de qualquer acesso ao armazenamento.
var ErrInvalidCPF = errors.New("cpf inválido")

// Service resolve o link do portal para um CPF.
type Service struct {
	store     rowstore.Store
	table     rowstore.Table
	portalURL string
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	newToken  func() (string, error)
}

// NewService cria o serviço. ttl <= 0 usa DefaultTTL.
func NewService(store rowstore.Store, table rowstore.Table, portalURL string, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:     store,
		table:     table,
		portalURL: strings.TrimSpace(portalURL),
		ttl:       ttl,
		logger:    logger.With().Str("component", "link").Logger(),
		now:       util.Now,
		newToken:  func() (string, error) { return auth.RandomToken(auth.LinkTokenLength) },
	}
}

// Result é o link pronto para envio.
type Result struct {
	URL     string `json:"url"`
	Token   Token  `json:"token"`
	Created bool   `json:"created"`
}

// GetOrCreate reaproveita o primeiro token ativo do CPF ou grava um novo.
func (s *Service) GetOrCreate(ctx context.Context, rawCPF string) (*Result, error) {
	cpf := util.OnlyDigits(rawCPF)
	if !util.ValidateCPF(cpf) {
		return nil, ErrInvalidCPF
	}

	now := s.now()
	if tk, ok := s.activeToken(ctx, cpf, now); ok {
		return &Result{URL: s.URL(tk.Token), Token: tk}, nil
	}

	value, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("gerar token: %w", err)
	}
	tk := Token{
		Token:     value,
		CPF:       cpf,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Uses:      "0",
	}
	if err := s.store.Create(ctx, s.table, tk.ToRow()); err != nil {
		return nil, err
	}
	s.logger.Info().Str("cpf", maskCPF(cpf)).Time("expires_at", tk.ExpiresAt).Msg("token de acesso criado")
	return &Result{URL: s.URL(tk.Token), Token: tk, Created: true}, nil
}

// URL monta o endereço do portal com o token.
func (s *Service) URL(token string) string {
	return s.portalURL + "?token=" + url.QueryEscape(token)
}

// Falha de busca equivale a não ter token ativo; um novo será criado.
func (s *Service) activeToken(ctx context.Context, cpf string, now time.Time) (Token, bool) {
	rows, err := s.store.Search(ctx, s.table, map[string]string{ColCPF: cpf})
	if err != nil {
		s.logger.Warn().Err(err).Msg("busca de tokens falhou")
		return Token{}, false
	}
	for _, row := range rows {
		tk := FromRow(row)
		if tk.Token != "" && tk.Active(now) {
			return tk, true
		}
	}
	return Token{}, false
}

// Message monta o texto colado no WhatsApp do paciente.
func Message(nome, link string) string {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		nome = "Paciente"
	}
	return fmt.Sprintf("Olá, tudo bem? %s! Segue seu link de acesso aos formulários. "+
		"OBS: os que tiverem a observação de copiar link, você deve clicar no botão "+
		"(irá copiar o link para ser enviado para um familiar ou amigo que lhe conheça "+
		"para responder com informações ao seu respeito). %s", nome, link)
}

func maskCPF(cpf string) string {
	if len(cpf) != 11 {
		return "***"
	}
	return cpf[:3] + ".***.***-" + cpf[9:]
}
