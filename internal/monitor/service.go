// Package monitor sonda periodicamente o armazenamento de planilhas.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Config controla o laço de sondagem.
type Config struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// Service executa verificações periódicas e alerta em mudanças de estado.
type Service struct {
	store    rowstore.Store
	table    rowstore.Table
	cfg      Config
	history  *History
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	once   sync.Once
	cancel context.CancelFunc
}

func NewService(store rowstore.Store, table rowstore.Table, cfg Config, logger zerolog.Logger, notifier Notifier) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Service{
		store:    store,
		table:    table,
		cfg:      cfg,
		history:  NewHistory(0),
		notifier: notifier,
		logger:   logger.With().Str("component", "monitor").Logger(),
		now:      time.Now,
	}
}

// Start inicia loop periódico. Pode ser chamado mais de uma vez.
func (s *Service) Start(parent context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop encerra loop periódico.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("monitor: loop iniciado")
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("monitor: loop encerrado")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce busca os testes ativos, registra o resultado e avisa em transições.
func (s *Service) RunOnce(ctx context.Context) Check {
	prev, hadPrev := s.history.Last()

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	rows, err := s.store.Search(probeCtx, s.table, map[string]string{"active": "sim"})
	latency := s.now().Sub(start)

	check := Check{
		OK:        err == nil,
		Latency:   latency,
		LatencyMS: latency.Milliseconds(),
		Rows:      len(rows),
		CheckedAt: s.now().UTC(),
	}
	if err != nil {
		check.Error = err.Error()
		s.logger.Warn().Err(err).Msg("monitor: sondagem falhou")
	}
	s.history.Add(check)

	// primeira sondagem com falha também alerta
	if (hadPrev && prev.OK != check.OK) || (!hadPrev && !check.OK) {
		s.alert(ctx, check)
	}
	return check
}

func (s *Service) alert(ctx context.Context, c Check) {
	if s.notifier == nil {
		return
	}
	msg := AlertMessage{
		Title:    fmt.Sprintf("Planilha %s", s.table),
		Severity: "info",
		Text:     fmt.Sprintf("Armazenamento voltou a responder (%d ms).", c.LatencyMS),
	}
	if !c.OK {
		msg.Severity = "critical"
		msg.Text = "Armazenamento indisponível: " + c.Error
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error().Err(err).Msg("monitor: falha ao enviar alerta")
	}
}

// Status é o que GET /monitor devolve.
type Status struct {
	Enabled   bool      `json:"enabled"`
	Last      *Check    `json:"last,omitempty"`
	Aggregate Aggregate `json:"aggregate"`
}

func (s *Service) Status() Status {
	st := Status{Enabled: s.cfg.Enabled, Aggregate: s.history.Aggregate()}
	if last, ok := s.history.Last(); ok {
		st.Last = &last
	}
	return st
}
