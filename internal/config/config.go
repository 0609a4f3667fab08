package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Provedores de armazenamento de linhas.
const (
	StoreSheetDB  = "sheetdb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port          int
	StoreProvider string
	SheetDB       SheetDBConfig
	Tables        rowstore.Tables
	DBDSN         string
	RedisURL      string

	JWTSecret    string
	JWTAccessTTL time.Duration
	AllowOrigins []string

	PatientPortalURL  string
	AnamneseScriptURL string
	LinkTTL           time.Duration
	CatalogCacheTTL   time.Duration

	Storage    StorageConfig
	Monitoring MonitoringConfig

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
}

// SheetDBConfig aponta para a API da planilha.
type SheetDBConfig struct {
	BaseURL string
	Token   string
}

// StorageConfig habilita o arquivamento de PDFs (STORAGE_PROVIDER=s3).
type StorageConfig struct {
	Provider     string
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

// MonitoringConfig controla a sondagem do armazenamento.
type MonitoringConfig struct {
	Enabled         bool
	Interval        time.Duration
	SlackWebhookURL string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente (e .env, se existir) e aplica defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv monta a configuração a partir de uma função de consulta.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}
	cfg := &Config{}

	port, err := strconv.Atoi(env.get("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.StoreProvider = strings.ToLower(strings.TrimSpace(env.get("STORE_PROVIDER", StoreSheetDB)))
	switch cfg.StoreProvider {
	case StoreSheetDB:
		cfg.SheetDB.BaseURL = strings.TrimSpace(env.get("SHEETDB_BASE_URL", ""))
		if cfg.SheetDB.BaseURL == "" {
			return nil, errors.New("SHEETDB_BASE_URL obrigatório")
		}
		cfg.SheetDB.Token = strings.TrimSpace(env.get("SHEETDB_TOKEN", ""))
	case StorePostgres:
		cfg.DBDSN = env.get("DB_DSN", "")
		if cfg.DBDSN == "" {
			return nil, errors.New("DB_DSN obrigatório")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE_PROVIDER inválido: %s", cfg.StoreProvider)
	}

	defaults := rowstore.DefaultTables()
	cfg.Tables = rowstore.Tables{
		Auth:     rowstore.Table(env.nonEmpty("SHEET_AUTH", string(defaults.Auth))),
		Tests:    rowstore.Table(env.nonEmpty("SHEET_TESTS", string(defaults.Tests))),
		Patients: rowstore.Table(env.nonEmpty("SHEET_PATIENTS", string(defaults.Patients))),
		Tokens:   rowstore.Table(env.nonEmpty("SHEET_TOKENS", string(defaults.Tokens))),
	}

	cfg.RedisURL = strings.TrimSpace(env.get("REDIS_URL", ""))
	if cfg.RedisURL == "" && cfg.StoreProvider != StoreMemory {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(env.get("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	if cfg.JWTAccessTTL, err = env.duration("JWT_ACCESS_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LinkTTL, err = env.duration("LINK_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheTTL, err = env.duration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(env.get("ALLOW_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.PatientPortalURL = env.nonEmpty("PATIENT_PORTAL_URL", "https://integradaneuropsicologia.github.io/formularios")
	cfg.AnamneseScriptURL = strings.TrimSpace(env.get("ANAMNESE_SCRIPT_URL", ""))

	cfg.Storage = StorageConfig{
		Provider:     strings.ToLower(strings.TrimSpace(env.get("STORAGE_PROVIDER", ""))),
		Endpoint:     strings.TrimSpace(env.get("S3_ENDPOINT", "")),
		Region:       env.nonEmpty("S3_REGION", "auto"),
		Bucket:       strings.TrimSpace(env.get("S3_BUCKET", "")),
		AccessKey:    strings.TrimSpace(env.get("S3_ACCESS_KEY", "")),
		SecretKey:    strings.TrimSpace(env.get("S3_SECRET_KEY", "")),
		PublicDomain: strings.TrimSpace(env.get("S3_PUBLIC_DOMAIN", "")),
	}
	if p := cfg.Storage.Provider; p != "" && p != "s3" {
		return nil, fmt.Errorf("STORAGE_PROVIDER inválido: %s", p)
	}

	cfg.Monitoring.Enabled = env.flag("MONITOR_ENABLED")
	if cfg.Monitoring.Interval, err = env.duration("MONITOR_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	cfg.Monitoring.SlackWebhookURL = strings.TrimSpace(env.get("SLACK_WEBHOOK_URL", ""))

	if cfg.RateLimitPublic, err = env.rateLimit("RATE_LIMIT_PUBLIC", RateLimitConfig{RequestsPerSecond: 10, Burst: 20}); err != nil {
		return nil, err
	}
	if cfg.RateLimitAuth, err = env.rateLimit("RATE_LIMIT_AUTH", RateLimitConfig{RequestsPerSecond: 1, Burst: 5}); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) get(key, def string) string {
	if val, ok := e.lookup(key); ok {
		return val
	}
	return def
}

func (e envReader) nonEmpty(key, def string) string {
	if val := strings.TrimSpace(e.get(key, "")); val != "" {
		return val
	}
	return def
}

func (e envReader) flag(key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(e.get(key, "")))
	return v
}

func (e envReader) duration(key string, def time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(e.get(key, ""))
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

// rateLimit lê "<rps>:<burst>", por exemplo "10:20".
func (e envReader) rateLimit(key string, def RateLimitConfig) (RateLimitConfig, error) {
	val := strings.TrimSpace(e.get(key, ""))
	if val == "" {
		return def, nil
	}
	rpsStr, burstStr, ok := strings.Cut(val, ":")
	if !ok {
		return def, errors.New(key + " deve ter o formato rps:burst")
	}
	rps, err := strconv.ParseFloat(strings.TrimSpace(rpsStr), 64)
	if err != nil || rps <= 0 {
		return def, errors.New(key + " inválido")
	}
	burst, err := strconv.Atoi(strings.TrimSpace(burstStr))
	if err != nil || burst <= 0 {
		return def, errors.New(key + " inválido")
	}
	return RateLimitConfig{RequestsPerSecond: rps, Burst: burst}, nil
}
