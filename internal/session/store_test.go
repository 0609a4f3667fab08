package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
)

type stubRedis struct {
	store map[string]string
	ttl   map[string]time.Duration
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		s.store[key] = string(b)
	}
	s.ttl[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := s.store[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(s.store, k)
	}
	return redis.NewIntCmd(ctx)
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &stubRedis{store: map[string]string{}, ttl: map[string]time.Duration{}}
	st := NewRedis(client, 15*time.Minute)

	s := patient.NewSession("abc", "recepcao")
	s.Filter = catalog.FilterJa
	s.CPF = "52998224725"
	s.Mode = patient.ModeUpdate
	s.Patient = &patient.Record{CPF: "52998224725", Instruments: map[string]catalog.Flags{"BDI": {Authorized: true}}}

	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if client.ttl[Key("abc")] != 15*time.Minute {
		t.Fatalf("ttl inesperado: %v", client.ttl[Key("abc")])
	}

	got, err := st.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filter != catalog.FilterJa || got.Mode != patient.ModeUpdate || !got.Patient.Flags("BDI").Authorized {
		t.Fatalf("sessão inesperada: %+v", got)
	}

	if err := st.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, got %v", err)
	}
}

func TestMemoryMissing(t *testing.T) {
	if _, err := NewMemory().Get(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, got %v", err)
	}
}
