package obs

import (
	"context"
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Store decora um rowstore.Store contando chamadas e latência.
type Store struct {
	next    rowstore.Store
	metrics *Metrics
}

// InstrumentStore devolve next com métricas.
func (m *Metrics) InstrumentStore(next rowstore.Store) *Store {
	return &Store{next: next, metrics: m}
}

func (s *Store) Search(ctx context.Context, table rowstore.Table, filter map[string]string) ([]rowstore.Row, error) {
	start := time.Now()
	rows, err := s.next.Search(ctx, table, filter)
	s.observe("search", table, start, err)
	return rows, err
}

func (s *Store) Create(ctx context.Context, table rowstore.Table, row rowstore.Row) error {
	start := time.Now()
	err := s.next.Create(ctx, table, row)
	s.observe("create", table, start, err)
	return err
}

func (s *Store) PatchBy(ctx context.Context, table rowstore.Table, column, value string, patch rowstore.Row) error {
	start := time.Now()
	err := s.next.PatchBy(ctx, table, column, value, patch)
	s.observe("patch", table, start, err)
	return err
}

func (s *Store) observe(op string, table rowstore.Table, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.storeCallsTotal.WithLabelValues(op, string(table), result).Inc()
	s.metrics.storeCallDuration.WithLabelValues(op, string(table)).Observe(time.Since(start).Seconds())
}
