// Command integrada opera o cadastro pela linha de comando, com a mesma
// configuração da API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/app"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/config"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

type env struct {
	cfg    *config.Config
	store  rowstore.Store
	loader *catalog.Loader
	out    io.Writer
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx := context.Background()
	rt, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível abrir o armazenamento")
	}
	defer rt.Close()

	e := &env{
		cfg:    cfg,
		store:  rt.Store,
		loader: catalog.NewLoader(rt.Store, cfg.Tables.Tests, nil, 0, zerolog.Nop()),
		out:    os.Stdout,
	}

	cmd, args := os.Args[1], os.Args[2:]
	var runErr error
	switch cmd {
	case "lookup":
		runErr = e.runLookup(ctx, args)
	case "catalog":
		runErr = e.runCatalog(ctx, args)
	case "link":
		runErr = e.runLink(ctx, args)
	case "import":
		runErr = e.runImport(ctx, args)
	default:
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		rt.Close()
		log.Fatal().Err(runErr).Str("cmd", cmd).Msg("falha")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "integrada CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  integrada lookup --cpf 52998224725")
	fmt.Fprintln(os.Stderr, "  integrada catalog [--cpf 52998224725] [--filter todos|cadastrar|ja|preenchido]")
	fmt.Fprintln(os.Stderr, "  integrada link --cpf 52998224725 [--nome \"Maria\"]")
	fmt.Fprintln(os.Stderr, "  integrada import --table Patients --file linhas.json")
}

func (e *env) runLookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	cpf := fs.String("cpf", "", "CPF do paciente")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess := patient.NewSession("cli", "cli")
	ctrl := patient.NewController(e.store, e.cfg.Tables.Patients, e.loader, log.Logger)
	res, err := ctrl.Lookup(ctx, sess, *cpf)
	if err != nil {
		return err
	}
	return e.printJSON(res)
}

func (e *env) runCatalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	cpf := fs.String("cpf", "", "CPF do paciente (opcional)")
	filter := fs.String("filter", "todos", "filtro da grade")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess := patient.NewSession("cli", "cli")
	sess.Filter = catalog.ParseFilter(*filter)
	if *cpf != "" {
		ctrl := patient.NewController(e.store, e.cfg.Tables.Patients, e.loader, log.Logger)
		if _, err := ctrl.Lookup(ctx, sess, *cpf); err != nil {
			return err
		}
	}

	cat, err := e.loader.Load(ctx)
	if err != nil {
		return err
	}
	res := catalog.Render(cat, sess.FlagSource(), sess.Filter)
	if res.Empty {
		fmt.Fprintln(e.out, res.Message)
		return nil
	}
	for _, item := range res.Items {
		fmt.Fprintf(e.out, "%-12s %-14s %s\n", item.Code, item.StatusTag, item.Label)
	}
	fmt.Fprintln(e.out, res.Summary.Line())
	return nil
}

func (e *env) runLink(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	cpf := fs.String("cpf", "", "CPF do paciente")
	nome := fs.String("nome", "", "nome usado na mensagem")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := link.NewService(e.store, e.cfg.Tables.Tokens, e.cfg.PatientPortalURL, e.cfg.LinkTTL, log.Logger)
	res, err := svc.GetOrCreate(ctx, *cpf)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, link.Message(*nome, res.URL))
	return nil
}

// runImport grava linhas de um arquivo JSON (lista de objetos) numa aba,
// útil para povoar o provedor postgres a partir de uma exportação da planilha.
func (e *env) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	table := fs.String("table", "", "aba de destino")
	file := fs.String("file", "", "arquivo JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := errors.Join(util.RequireString(*table, "table"), util.RequireString(*file, "file")); err != nil {
		return err
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("ler arquivo: %w", err)
	}
	var rows []rowstore.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for i, row := range rows {
		if err := e.store.Create(ctx, rowstore.Table(*table), row); err != nil {
			return fmt.Errorf("linha %d: %w", i+1, err)
		}
	}
	fmt.Fprintf(e.out, "%d linhas importadas em %s\n", len(rows), *table)
	return nil
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
