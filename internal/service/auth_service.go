package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/session"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

var (
	// ErrInvalidCredentials não distingue usuário inexistente de senha errada.
	ErrInvalidCredentials = errors.New("usuário ou senha inválidos")
	// ErrMissingCredentials indica formulário de login incompleto.
	ErrMissingCredentials = errors.New("usuário e senha obrigatórios")
)

// hashColumn guarda a senha em Argon2id quando a planilha não usa texto puro.
const hashColumn = "senha_hash"

// credentialVariant é um par de colunas usuário/senha aceito na aba Auth.
type credentialVariant struct {
	user string
	pass string
}

// As planilhas existentes usam cabeçalhos diferentes; tentamos em ordem.
var credentialVariants = []credentialVariant{
	{user: "login", pass: "senha"},
	{user: "usuario", pass: "senha"},
	{user: "email", pass: "senha"},
	{user: "Login", pass: "Senha"},
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	store    rowstore.Store
	table    rowstore.Table
	sessions session.Store
	jwt      *auth.JWTManager
}

// NewAuthService cria novo serviço.
func NewAuthService(store rowstore.Store, table rowstore.Table, sessions session.Store, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{store: store, table: table, sessions: sessions, jwt: jwtMgr}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
	User        string    `json:"user"`
}

// Login confere usuário e senha na aba Auth e abre uma sessão limpa.
func (s *AuthService) Login(ctx context.Context, user, password string) (*LoginResult, error) {
	user = strings.TrimSpace(user)
	if user == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if !s.matchCredentials(ctx, user, password) {
		log.Warn().Msg("login: credenciais não conferem")
		return nil, ErrInvalidCredentials
	}

	sess := patient.NewSession(util.NewSessionID(), user)
	sess.UpdatedAt = util.Now()

	token, expires, err := s.jwt.GenerateAccessToken(sess.ID, user)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().Str("session", sess.ID).Msg("login realizado")
	return &LoginResult{AccessToken: token, ExpiresAt: expires, SessionID: sess.ID, User: user}, nil
}

// Logout descarta o estado da sessão (paciente corrente, modo e filtro).
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Session carrega o estado de trabalho do login.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*patient.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// SaveSession persiste alterações do estado de trabalho.
func (s *AuthService) SaveSession(ctx context.Context, sess *patient.Session) error {
	sess.UpdatedAt = util.Now()
	return s.sessions.Save(ctx, sess)
}

func (s *AuthService) matchCredentials(ctx context.Context, user, password string) bool {
	for _, v := range credentialVariants {
		rows, err := s.store.Search(ctx, s.table, map[string]string{v.user: user})
		if err != nil {
			log.Warn().Err(err).Str("coluna", v.user).Msg("login: variante ignorada")
			continue
		}
		for _, row := range rows {
			if passwordMatches(row, v.pass, password) {
				return true
			}
		}
	}
	return false
}

func passwordMatches(row rowstore.Row, passColumn, password string) bool {
	if hash := row.Get(hashColumn); auth.IsHash(hash) {
		ok, err := auth.Verify(password, hash)
		if err != nil {
			log.Warn().Err(err).Msg("login: hash inválido na planilha")
			return false
		}
		return ok
	}

	stored := row.Get(passColumn)
	if stored == "" {
		return false
	}
	if auth.IsHash(stored) {
		ok, err := auth.Verify(password, stored)
		return err == nil && ok
	}
	return auth.EqualSecret(stored, password)
}
