package util

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID gera identificador ordenável por tempo, usado em chaves de objetos.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewSessionID gera identificador opaco de sessão.
func NewSessionID() string {
	return uuid.NewString()
}

// Now devolve o horário atual em UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// LocalTimestamp formata no padrão "2006-01-02 15:04:05" usado nas planilhas.
func LocalTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
