// Package session guarda o estado de trabalho de cada login.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
)

// ErrNotFound indica sessão inexistente ou expirada.
var ErrNotFound = errors.New("sessão não encontrada")

// Store persiste sessões por id.
type Store interface {
	Get(ctx context.Context, id string) (*patient.Session, error)
	Save(ctx context.Context, s *patient.Session) error
	Delete(ctx context.Context, id string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis guarda sessões serializadas em JSON com expiração.
type Redis struct {
	client redisCommander
	ttl    time.Duration
}

// NewRedis cria o armazenamento de sessões.
func NewRedis(client redisCommander, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Key monta a chave da sessão no Redis.
func Key(id string) string {
	return fmt.Sprintf("sessao:%s", id)
}

func (r *Redis) Get(ctx context.Context, id string) (*patient.Session, error) {
	data, err := r.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s patient.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sessão corrompida: %w", err)
	}
	return &s, nil
}

func (r *Redis) Save(ctx context.Context, s *patient.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Key(s.ID), payload, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, Key(id)).Err()
}

// Memory guarda sessões no processo, sem expiração.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemory cria armazenamento local de sessões.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, id string) (*patient.Session, error) {
	m.mu.Lock()
	data, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s patient.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Memory) Save(ctx context.Context, s *patient.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[s.ID] = payload
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}
