// Package rowstore define o contrato do armazenamento orientado a linhas
// (planilha) usado como fonte da verdade do sistema.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Row representa uma linha da planilha: coluna -> valor.
type Row map[string]string

// Get devolve o valor da coluna ou "" quando ausente.
func (r Row) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Clone copia a linha.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Matches indica se todas as colunas do filtro batem exatamente.
func (r Row) Matches(filter map[string]string) bool {
	for k, v := range filter {
		if r[k] != v {
			return false
		}
	}
	return true
}

// Table identifica uma aba lógica.
type Table string

// Tables agrupa os nomes físicos das abas usadas pelo sistema.
type Tables struct {
	Auth     Table
	Tests    Table
	Patients Table
	Tokens   Table
}

// DefaultTables usa os nomes das abas da planilha de produção.
func DefaultTables() Tables {
	return Tables{Auth: "Auth", Tests: "Tests", Patients: "Patients", Tokens: "LinkTokens"}
}

// Store é o colaborador externo de persistência.
type Store interface {
	Search(ctx context.Context, table Table, filter map[string]string) ([]Row, error)
	Create(ctx context.Context, table Table, row Row) error
	PatchBy(ctx context.Context, table Table, column, value string, patch Row) error
}

var (
	// ErrStore marca qualquer falha do armazenamento remoto.
	ErrStore = errors.New("falha no armazenamento")
	// ErrNotFound é retornado quando nenhuma linha corresponde à chave de atualização.
	ErrNotFound = errors.New("registro não encontrado")
)

// StoreError detalha a operação que falhou. errors.Is(err, ErrStore) é sempre verdadeiro.
type StoreError struct {
	Op     string
	Table  Table
	Status int
	Body   string
	Err    error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	switch e.Op {
	case "search":
		b.WriteString("falha ao buscar em " + string(e.Table))
	case "create":
		b.WriteString("falha ao criar em " + string(e.Table))
	case "patch":
		b.WriteString("falha ao atualizar em " + string(e.Table))
	default:
		b.WriteString("falha em " + string(e.Table))
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		b.WriteString(": " + body)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *StoreError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStore, e.Err}
	}
	return []error{ErrStore}
}

// Wrap embrulha err como StoreError, preservando StoreErrors já construídos.
func Wrap(op string, table Table, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Table: table, Err: err}
}
