package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/session"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyUser    contextKey = "user"
	ContextKeySession contextKey = "session"
)

// SessionLoader carrega o estado de trabalho pelo id da sessão.
type SessionLoader interface {
	Session(ctx context.Context, sessionID string) (*patient.Session, error)
}

// Auth valida o JWT de acesso e carrega a sessão correspondente no contexto.
// Sessão encerrada (logout ou expiração no Redis) invalida o token.
func Auth(jwtManager *auth.JWTManager, sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			sess, err := sessions.Session(r.Context(), claims.Subject)
			if errors.Is(err, session.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão encerrada")
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("falha ao carregar sessão")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyUser, claims.User)
			ctx = context.WithValue(ctx, ContextKeySession, sess)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o id da sessão do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetUser recupera o login autenticado.
func GetUser(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyUser).(string)
	return val
}

// GetSession recupera o estado de trabalho carregado por Auth.
func GetSession(ctx context.Context) *patient.Session {
	val, _ := ctx.Value(ContextKeySession).(*patient.Session)
	return val
}
