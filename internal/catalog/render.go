package catalog

import (
	"fmt"
	"strings"
)

// Filter restringe a grade a um status; FilterTodos não filtra.
type Filter string

const (
	FilterTodos      Filter = "todos"
	FilterCadastrar  Filter = Filter(StatusCadastrar)
	FilterJa         Filter = Filter(StatusJa)
	FilterPreenchido Filter = Filter(StatusPreenchido)
)

// EmptyCatalogMessage é exibida quando a aba Tests não tem linhas ativas.
const EmptyCatalogMessage = "Nenhum teste ativo no catálogo (aba Tests)."

var filterLabels = map[Filter]string{
	FilterTodos:      "Todos",
	FilterCadastrar:  "Cadastrar",
	FilterJa:         "Já registrados",
	FilterPreenchido: "Preenchido",
}

// ParseFilter aceita os valores conhecidos; qualquer outro vira "todos".
func ParseFilter(raw string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := filterLabels[f]; ok {
		return f
	}
	return FilterTodos
}

// Label devolve o rótulo exibido na linha de status.
func (f Filter) Label() string {
	if l, ok := filterLabels[f]; ok {
		return l
	}
	return filterLabels[FilterTodos]
}

// RenderedItem é um instrumento pronto para a grade.
type RenderedItem struct {
	Instrument
	Status       Status `json:"status"`
	StatusTag    string `json:"status_tag"`
	TagClass     string `json:"tag_class"`
	CanAuthorize bool   `json:"can_authorize"`
	CanRemove    bool   `json:"can_remove"`
}

// Summary agrega contagens sobre o catálogo inteiro, ignorando o filtro.
type Summary struct {
	Total       int    `json:"total"`
	Cadastrar   int    `json:"cadastrar"`
	Ja          int    `json:"ja"`
	Preenchido  int    `json:"preenchido"`
	Filter      Filter `json:"filter"`
	FilterLabel string `json:"filter_label"`
}

// Line formata a linha exibida acima da grade.
func (s Summary) Line() string {
	return fmt.Sprintf("Ativos: %d • Cadastrar: %d • Já: %d • Preenchido: %d • Filtro: %s",
		s.Total, s.Cadastrar, s.Ja, s.Preenchido, s.FilterLabel)
}

// RenderResult é a projeção da grade. Empty distingue catálogo vazio de
// catálogo cujo filtro não deixou nenhum item.
type RenderResult struct {
	Empty   bool           `json:"empty"`
	Message string         `json:"message"`
	Items   []RenderedItem `json:"items"`
	Summary Summary        `json:"summary"`
}

// Render classifica cada instrumento e devolve a grade filtrada na ordem do catálogo.
func Render(cat Catalog, patient FlagSource, filter Filter) RenderResult {
	filter = ParseFilter(string(filter))
	if cat.Len() == 0 {
		return RenderResult{
			Empty:   true,
			Message: EmptyCatalogMessage,
			Items:   []RenderedItem{},
			Summary: Summary{Filter: filter, FilterLabel: filter.Label()},
		}
	}

	summary := Summary{Total: cat.Len(), Filter: filter, FilterLabel: filter.Label()}
	items := make([]RenderedItem, 0, cat.Len())

	for _, inst := range cat.items {
		st := Classify(inst, patient)
		switch st {
		case StatusCadastrar:
			summary.Cadastrar++
		case StatusJa:
			summary.Ja++
		default:
			summary.Preenchido++
		}

		if filter != FilterTodos && Filter(st) != filter {
			continue
		}
		items = append(items, renderItem(inst, st))
	}

	return RenderResult{Items: items, Summary: summary, Message: summary.Line()}
}

func renderItem(inst Instrument, st Status) RenderedItem {
	item := RenderedItem{Instrument: inst, Status: st}
	switch st {
	case StatusJa:
		item.StatusTag, item.TagClass = "já registrado", "ok"
		item.CanRemove = true
	case StatusPreenchido:
		item.StatusTag, item.TagClass = "preenchido", "done"
	default:
		item.StatusTag, item.TagClass = "cadastrar", "new"
		item.CanAuthorize = true
	}
	return item
}
