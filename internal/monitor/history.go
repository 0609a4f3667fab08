package monitor

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Check é o resultado de uma sondagem do armazenamento.
type Check struct {
	OK        bool          `json:"ok"`
	Latency   time.Duration `json:"latency_ns"`
	LatencyMS int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Rows      int           `json:"rows"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Aggregate resume as sondagens retidas.
type Aggregate struct {
	Total        int     `json:"total"`
	Success      int     `json:"success"`
	UptimePct    float64 `json:"uptime_pct"`
	ErrorRatePct float64 `json:"error_rate_pct"`
	P95MS        int64   `json:"p95_ms"`
}

// History guarda as últimas sondagens em anel de tamanho fixo.
type History struct {
	mu    sync.RWMutex
	items []Check
	next  int
	full  bool
}

// NewHistory cria o anel. size <= 0 usa 288 (24h a cada 5 min).
func NewHistory(size int) *History {
	if size <= 0 {
		size = 288
	}
	return &History{items: make([]Check, size)}
}

func (h *History) Add(c Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[h.next] = c
	h.next = (h.next + 1) % len(h.items)
	if h.next == 0 {
		h.full = true
	}
}

// Last devolve a sondagem mais recente.
func (h *History) Last() (Check, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full && h.next == 0 {
		return Check{}, false
	}
	idx := (h.next - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

func (h *History) snapshot() []Check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return append([]Check(nil), h.items...)
	}
	return append([]Check(nil), h.items[:h.next]...)
}

// Aggregate calcula uptime, taxa de erro e p95 das sondagens bem-sucedidas.
func (h *History) Aggregate() Aggregate {
	checks := h.snapshot()
	agg := Aggregate{Total: len(checks)}
	if agg.Total == 0 {
		return agg
	}

	var latencies []int64
	for _, c := range checks {
		if c.OK {
			agg.Success++
			latencies = append(latencies, c.LatencyMS)
		}
	}
	uptime := float64(agg.Success) / float64(agg.Total)
	agg.UptimePct = round2(uptime * 100)
	agg.ErrorRatePct = round2((1 - uptime) * 100)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		idx := int(math.Ceil(0.95*float64(len(latencies)))) - 1
		agg.P95MS = latencies[idx]
	}
	return agg
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
