// Package app abre as dependências externas a partir da configuração.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/config"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/db"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/session"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/sheetdb"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/storage"
)

// Runtime guarda conexões abertas e o armazenamento escolhido.
type Runtime struct {
	Store rowstore.Store
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Open conecta ao provedor de planilhas e ao Redis (quando configurado).
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	switch cfg.StoreProvider {
	case config.StoreSheetDB:
		client, err := sheetdb.New(sheetdb.Config{BaseURL: cfg.SheetDB.BaseURL, Token: cfg.SheetDB.Token})
		if err != nil {
			return nil, err
		}
		rt.Store = client
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		pg := rowstore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db schema: %w", err)
		}
		rt.Pool = pool
		rt.Store = pg
	default:
		log.Warn().Msg("STORE_PROVIDER=memory: dados não são persistidos")
		rt.Store = rowstore.NewMemory()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis parse: %w", err)
		}
		rt.Redis = redis.NewClient(opts)
	}
	return rt, nil
}

// Sessions escolhe Redis quando disponível.
func (rt *Runtime) Sessions(cfg *config.Config) session.Store {
	if rt.Redis != nil {
		return session.NewRedis(rt.Redis, cfg.JWTAccessTTL)
	}
	return session.NewMemory()
}

// Uploader monta o arquivamento de PDFs, ou Noop.
func Uploader(cfg *config.Config) (storage.Uploader, error) {
	if cfg.Storage.Provider != "s3" {
		return storage.Noop{}, nil
	}
	up, err := storage.NewS3(storage.S3Config{
		Endpoint:     cfg.Storage.Endpoint,
		Region:       cfg.Storage.Region,
		Bucket:       cfg.Storage.Bucket,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		PublicDomain: cfg.Storage.PublicDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return up, nil
}

// ReadyChecks lista as sondagens de GET /ready.
func (rt *Runtime) ReadyChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if rt.Pool != nil {
		checks["db"] = rt.Pool.Ping
	}
	if rt.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close libera conexões.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}
