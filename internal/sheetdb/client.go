// Package sheetdb implementa rowstore.Store sobre a API REST do SheetDB.
package sheetdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
)

// Client encapsula chamadas à API do SheetDB.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Config descreve a planilha alvo e credencial opcional.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New cria o cliente. BaseURL é o endpoint completo da planilha (https://sheetdb.io/api/v1/<id>).
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("sheetdb: base url obrigatória")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, errors.New("sheetdb: base url deve incluir protocolo http/https")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		httpClient: client,
		baseURL:    strings.TrimRight(base, "/"),
		token:      strings.TrimSpace(cfg.Token),
	}, nil
}

// Search filtra linhas por igualdade exata em todas as colunas informadas.
func (c *Client) Search(ctx context.Context, table rowstore.Table, filter map[string]string) ([]rowstore.Row, error) {
	q := url.Values{}
	for k, v := range filter {
		q.Set(k, v)
	}
	q.Set("sheet", string(table))

	endpoint := c.baseURL + "/search?" + q.Encode()
	if len(filter) == 0 {
		endpoint = c.baseURL + "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, rowstore.Wrap("search", table, err)
	}

	var raw []map[string]any
	if err := c.do(req, "search", table, &raw); err != nil {
		return nil, err
	}

	rows := make([]rowstore.Row, 0, len(raw))
	for _, item := range raw {
		rows = append(rows, toRow(item))
	}
	return rows, nil
}

// Create acrescenta uma linha ao final da aba.
func (c *Client) Create(ctx context.Context, table rowstore.Table, row rowstore.Row) error {
	endpoint := c.baseURL + "?sheet=" + url.QueryEscape(string(table))
	body := map[string]any{"data": []rowstore.Row{row}}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return rowstore.Wrap("create", table, err)
	}
	return c.do(req, "create", table, nil)
}

// PatchBy mescla patch nas linhas em que column = value.
func (c *Client) PatchBy(ctx context.Context, table rowstore.Table, column, value string, patch rowstore.Row) error {
	endpoint := fmt.Sprintf("%s/%s/%s?sheet=%s", c.baseURL,
		url.PathEscape(column), url.PathEscape(value), url.QueryEscape(string(table)))
	body := map[string]any{"data": patch}

	req, err := c.newRequest(ctx, http.MethodPatch, endpoint, body)
	if err != nil {
		return rowstore.Wrap("patch", table, err)
	}
	return c.do(req, "patch", table, nil)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, err
		}
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op string, table rowstore.Table, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &rowstore.StoreError{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &rowstore.StoreError{Op: op, Table: table, Status: resp.StatusCode, Body: string(body)}
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &rowstore.StoreError{Op: op, Table: table, Err: fmt.Errorf("resposta inválida: %w", err)}
	}
	return nil
}

func toRow(item map[string]any) rowstore.Row {
	row := make(rowstore.Row, len(item))
	for k, v := range item {
		switch val := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = val
		case json.Number:
			row[k] = val.String()
		case bool:
			if val {
				row[k] = "TRUE"
			} else {
				row[k] = "FALSE"
			}
		default:
			row[k] = fmt.Sprint(val)
		}
	}
	return row
}
