// Package anamnese baixa o PDF da anamnese gerado pelo script da planilha.
package anamnese

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/storage"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

// maxPDFSize limita o corpo lido do script.
const maxPDFSize = 20 << 20

var (
	ErrInvalidCPF    = errors.New("cpf inválido")
	ErrNotConfigured = errors.New("anamnese: script não configurado")
)

// Document é o PDF devolvido pelo script, opcionalmente arquivado.
type Document struct {
	CPF         string
	Body        []byte
	ContentType string
	Archived    *storage.Stored
}

// Client chama o endpoint do script com ?cpf=.
type Client struct {
	httpClient *http.Client
	scriptURL  string
	uploader   storage.Uploader
	logger     zerolog.Logger
}

// Config descreve o script e o arquivamento.
type Config struct {
	ScriptURL  string
	Uploader   storage.Uploader
	HTTPClient *http.Client
}

// New cria o cliente. ScriptURL vazio mantém o cliente, mas Fetch devolve ErrNotConfigured.
func New(cfg Config, logger zerolog.Logger) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	uploader := cfg.Uploader
	if uploader == nil {
		uploader = storage.Noop{}
	}
	return &Client{
		httpClient: client,
		scriptURL:  strings.TrimSpace(cfg.ScriptURL),
		uploader:   uploader,
		logger:     logger.With().Str("component", "anamnese").Logger(),
	}
}

// Fetch gera o PDF para o CPF. Falha no arquivamento é registrada e não impede a entrega.
func (c *Client) Fetch(ctx context.Context, rawCPF string) (*Document, error) {
	cpf := util.OnlyDigits(rawCPF)
	if !util.ValidateCPF(cpf) {
		return nil, ErrInvalidCPF
	}
	if c.scriptURL == "" {
		return nil, ErrNotConfigured
	}

	endpoint, err := url.Parse(c.scriptURL)
	if err != nil {
		return nil, fmt.Errorf("anamnese: url inválida: %w", err)
	}
	q := endpoint.Query()
	q.Set("cpf", cpf)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anamnese: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("anamnese: script respondeu %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize))
	if err != nil {
		return nil, fmt.Errorf("anamnese: leitura: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("anamnese: resposta vazia")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	doc := &Document{CPF: cpf, Body: body, ContentType: contentType}
	if storage.Enabled(c.uploader) {
		stored, err := c.uploader.Upload(ctx, storage.Object{
			Key:         storage.ArchiveKey(cpf, util.NewULID()),
			Body:        body,
			ContentType: contentType,
		})
		if err != nil {
			c.logger.Warn().Err(err).Msg("falha ao arquivar PDF")
		} else {
			doc.Archived = stored
		}
	}
	return doc, nil
}
