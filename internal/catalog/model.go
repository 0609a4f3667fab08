// Package catalog carrega o catálogo de instrumentos de avaliação e calcula,
// para um paciente, o status de cada instrumento e a visão filtrada da grade.
package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// DefaultOrder é usado quando a linha não informa ordem válida.
const DefaultOrder = 9999

// Instrument descreve um teste ativo do catálogo.
type Instrument struct {
	Code        string    `json:"code"`
	Label       string    `json:"label"`
	Order       int       `json:"order"`
	SourceLabel string    `json:"source_label"`
	SourceKey   SourceKey `json:"source_key"`
}

// Catalog é um retrato imutável do catálogo, já ordenado para exibição.
type Catalog struct {
	items    []Instrument
	loadedAt time.Time
}

// New monta o catálogo a partir de instrumentos, com ordenação estável por Order.
func New(items []Instrument, loadedAt time.Time) Catalog {
	sorted := make([]Instrument, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return Catalog{items: sorted, loadedAt: loadedAt}
}

// FromRows converte linhas da aba Tests, descartando linhas sem código ou rótulo.
func FromRows(rows []rowstore.Row, loadedAt time.Time) Catalog {
	items := make([]Instrument, 0, len(rows))
	for _, r := range rows {
		code := strings.TrimSpace(r.Get("code"))
		label := strings.TrimSpace(r.Get("label"))
		if code == "" || label == "" {
			continue
		}
		items = append(items, Instrument{
			Code:        code,
			Label:       label,
			Order:       parseOrder(r.Get("order")),
			SourceLabel: NormalizeSourceLabel(r.Get("source")),
			SourceKey:   DeriveSourceKey(r.Get("source")),
		})
	}
	return New(items, loadedAt)
}

// Items devolve cópia dos instrumentos na ordem de exibição.
func (c Catalog) Items() []Instrument {
	out := make([]Instrument, len(c.items))
	copy(out, c.items)
	return out
}

// Len devolve a quantidade de instrumentos ativos.
func (c Catalog) Len() int { return len(c.items) }

// LoadedAt indica quando o retrato foi carregado.
func (c Catalog) LoadedAt() time.Time { return c.loadedAt }

// Lookup procura instrumento pelo código.
func (c Catalog) Lookup(code string) (Instrument, bool) {
	for _, it := range c.items {
		if it.Code == code {
			return it, true
		}
	}
	return Instrument{}, false
}

func parseOrder(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOrder
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
		return int(f)
	}
	return DefaultOrder
}
