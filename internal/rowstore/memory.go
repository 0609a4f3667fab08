package rowstore

import (
	"context"
	"sync"
)

// Memory mantém as abas em memória. Útil em desenvolvimento e testes.
type Memory struct {
	mu     sync.RWMutex
	tables map[Table][]Row
}

// NewMemory cria armazenamento vazio.
func NewMemory() *Memory {
	return &Memory{tables: make(map[Table][]Row)}
}

// Seed adiciona linhas diretamente, sem passar pelo contrato.
func (m *Memory) Seed(table Table, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], r.Clone())
	}
}

// Rows devolve cópia de todas as linhas da aba.
func (m *Memory) Rows(table Table) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, r.Clone())
	}
	return out
}

func (m *Memory) Search(ctx context.Context, table Table, filter map[string]string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, Wrap("search", table, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Row
	for _, r := range m.tables[table] {
		if r.Matches(filter) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, table Table, row Row) error {
	if err := ctx.Err(); err != nil {
		return Wrap("create", table, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], row.Clone())
	return nil
}

func (m *Memory) PatchBy(ctx context.Context, table Table, column, value string, patch Row) error {
	if err := ctx.Err(); err != nil {
		return Wrap("patch", table, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.tables[table] {
		if r[column] == value {
			for k, v := range patch {
				r[k] = v
			}
			return nil
		}
	}
	return &StoreError{Op: "patch", Table: table, Err: ErrNotFound}
}
