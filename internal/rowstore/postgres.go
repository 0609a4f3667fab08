package rowstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/db"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS planilha_linhas (
	id        BIGSERIAL PRIMARY KEY,
	aba       TEXT NOT NULL,
	dados     JSONB NOT NULL DEFAULT '{}'::jsonb,
	criado_em TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS planilha_linhas_aba_dados_idx ON planilha_linhas USING GIN (dados);
`

// Postgres guarda cada linha da planilha como JSONB, preservando a ordem de inserção.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres cria o provedor sobre um pool existente.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema cria a tabela de linhas se ainda não existir.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)
	return err
}

func (p *Postgres) Search(ctx context.Context, table Table, filter map[string]string) ([]Row, error) {
	if filter == nil {
		filter = map[string]string{}
	}
	payload, err := json.Marshal(filter)
	if err != nil {
		return nil, Wrap("search", table, err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT dados FROM planilha_linhas WHERE aba = $1 AND dados @> $2::jsonb ORDER BY id`,
		string(table), string(payload))
	if err != nil {
		return nil, Wrap("search", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, Wrap("search", table, err)
		}
		row := Row{}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, Wrap("search", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap("search", table, err)
	}
	return out, nil
}

func (p *Postgres) Create(ctx context.Context, table Table, row Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return Wrap("create", table, err)
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO planilha_linhas (aba, dados) VALUES ($1, $2::jsonb)`, string(table), string(payload))
	return Wrap("create", table, err)
}

func (p *Postgres) PatchBy(ctx context.Context, table Table, column, value string, patch Row) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return Wrap("patch", table, err)
	}

	err = db.WithTx(ctx, p.pool, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM planilha_linhas WHERE aba = $1 AND dados->>$2 = $3 ORDER BY id LIMIT 1 FOR UPDATE`,
			string(table), column, value).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE planilha_linhas SET dados = dados || $1::jsonb WHERE id = $2`, string(payload), id)
		return err
	})
	return Wrap("patch", table, err)
}
