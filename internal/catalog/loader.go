package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

const cacheKey = "catalogo:tests"

type cacheCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Loader busca os instrumentos ativos e, se houver Redis, guarda o retrato por ttl.
type Loader struct {
	store  rowstore.Store
	table  rowstore.Table
	cache  cacheCommander
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLoader cria o carregador. cache pode ser nil.
func NewLoader(store rowstore.Store, table rowstore.Table, cache cacheCommander, ttl time.Duration, logger zerolog.Logger) *Loader {
	return &Loader{store: store, table: table, cache: cache, ttl: ttl, logger: logger}
}

type cachedCatalog struct {
	Items    []Instrument `json:"items"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// Load devolve o catálogo ativo (active = "sim").
func (l *Loader) Load(ctx context.Context) (Catalog, error) {
	if l.cache != nil && l.ttl > 0 {
		if data, err := l.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached cachedCatalog
			if json.Unmarshal(data, &cached) == nil {
				return New(cached.Items, cached.LoadedAt), nil
			}
		}
	}

	rows, err := l.store.Search(ctx, l.table, map[string]string{"active": "sim"})
	if err != nil {
		return Catalog{}, fmt.Errorf("carregar catálogo: %w", err)
	}
	cat := FromRows(rows, util.Now())
	l.logger.Info().Int("instrumentos", cat.Len()).Msg("catálogo carregado")

	if l.cache != nil && l.ttl > 0 {
		if payload, err := json.Marshal(cachedCatalog{Items: cat.items, LoadedAt: cat.loadedAt}); err == nil {
			_ = l.cache.Set(ctx, cacheKey, payload, l.ttl).Err()
		}
	}
	return cat, nil
}

// Reload descarta o retrato em cache e carrega de novo.
func (l *Loader) Reload(ctx context.Context) (Catalog, error) {
	if l.cache != nil {
		if err := l.cache.Del(ctx, cacheKey).Err(); err != nil {
			l.logger.Warn().Err(err).Msg("não foi possível invalidar cache do catálogo")
		}
	}
	return l.Load(ctx)
}
