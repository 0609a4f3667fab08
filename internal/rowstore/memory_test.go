package rowstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemorySearchCreatePatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Create(ctx, "Patients", Row{"cpf": "1", "nome": "Ana"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Create(ctx, "Patients", Row{"cpf": "2", "nome": "Bia"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := m.Search(ctx, "Patients", map[string]string{"cpf": "2"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 1 || rows[0]["nome"] != "Bia" {
		t.Fatalf("resultado inesperado: %+v", rows)
	}

	rows[0]["nome"] = "alterado fora"
	if got := m.Rows("Patients")[1]["nome"]; got != "Bia" {
		t.Fatalf("busca deveria devolver cópias, got %q", got)
	}

	if err := m.PatchBy(ctx, "Patients", "cpf", "2", Row{"nome": "Beatriz", "X": "sim"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	got := m.Rows("Patients")[1]
	if got["nome"] != "Beatriz" || got["X"] != "sim" || got["cpf"] != "2" {
		t.Fatalf("patch não mesclou: %+v", got)
	}
}

func TestMemoryPatchMissing(t *testing.T) {
	err := NewMemory().PatchBy(context.Background(), "Patients", "cpf", "9", Row{"nome": "x"})
	if !errors.Is(err, ErrStore) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrStore+ErrNotFound, got %v", err)
	}
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Op: "search", Table: "Tests", Status: 500, Body: "boom"}
	if err.Error() != "falha ao buscar em Tests (status 500): boom" {
		t.Fatalf("mensagem inesperada: %q", err.Error())
	}
	if !errors.Is(Wrap("create", "Tests", err), ErrStore) {
		t.Fatal("Wrap deveria preservar StoreError")
	}
}
