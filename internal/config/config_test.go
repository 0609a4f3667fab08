package config

import (
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"SHEETDB_BASE_URL": "https://sheetdb.io/api/v1/abc",
		"REDIS_URL":        "redis://localhost:6379/0",
		"JWT_SECRET":       secret,
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != 8080 || cfg.StoreProvider != StoreSheetDB {
		t.Fatalf("defaults inesperados: %+v", cfg)
	}
	if cfg.Tables.Tokens != "LinkTokens" || cfg.Tables.Patients != "Patients" {
		t.Fatalf("abas inesperadas: %+v", cfg.Tables)
	}
	if cfg.LinkTTL != 720*time.Hour {
		t.Fatalf("LINK_TTL default inesperado: %s", cfg.LinkTTL)
	}
	if cfg.Monitoring.Enabled {
		t.Fatalf("monitor deveria vir desligado")
	}
}

func TestFromEnvMemoryProvider(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"STORE_PROVIDER":    "memory",
		"JWT_SECRET":        secret,
		"SHEET_PATIENTS":    "Pacientes",
		"RATE_LIMIT_AUTH":   "2:4",
		"MONITOR_ENABLED":   "true",
		"CATALOG_CACHE_TTL": "30s",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Tables.Patients != "Pacientes" {
		t.Fatalf("aba de pacientes não aplicada")
	}
	if cfg.RateLimitAuth.RequestsPerSecond != 2 || cfg.RateLimitAuth.Burst != 4 {
		t.Fatalf("rate limit inesperado: %+v", cfg.RateLimitAuth)
	}
	if !cfg.Monitoring.Enabled || cfg.CatalogCacheTTL != 30*time.Second {
		t.Fatalf("config inesperada: %+v", cfg)
	}
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"segredo curto":     {"STORE_PROVIDER": "memory", "JWT_SECRET": "curto"},
		"sem sheetdb":       {"REDIS_URL": "redis://x", "JWT_SECRET": secret},
		"postgres sem dsn":  {"STORE_PROVIDER": "postgres", "REDIS_URL": "redis://x", "JWT_SECRET": secret},
		"provedor invalido": {"STORE_PROVIDER": "excel", "JWT_SECRET": secret},
		"ttl invalido":      {"STORE_PROVIDER": "memory", "JWT_SECRET": secret, "LINK_TTL": "trinta dias"},
		"rate limit ruim":   {"STORE_PROVIDER": "memory", "JWT_SECRET": secret, "RATE_LIMIT_PUBLIC": "10"},
		"storage invalido":  {"STORE_PROVIDER": "memory", "JWT_SECRET": secret, "STORAGE_PROVIDER": "ftp"},
		"sheetdb sem redis": {"SHEETDB_BASE_URL": "https://x", "JWT_SECRET": secret},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromEnv(lookupFrom(env)); err == nil {
				t.Fatalf("esperava erro")
			}
		})
	}
}
