// Package storage arquiva documentos gerados (PDFs de anamnese) em bucket S3/R2.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
)

// ErrDisabled indica que nenhum bucket foi configurado.
var ErrDisabled = errors.New("storage: arquivamento desabilitado")

// Object é um arquivo a ser gravado.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
}

// Stored descreve o objeto já persistido.
type Stored struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	ETag string `json:"etag,omitempty"`
}

// Uploader grava objetos.
type Uploader interface {
	Upload(ctx context.Context, obj Object) (*Stored, error)
}

// Enabled diz se o uploader de fato grava algo.
func Enabled(u Uploader) bool {
	if u == nil {
		return false
	}
	_, noop := u.(Noop)
	return !noop
}

// ArchiveKey monta a chave do PDF: anamnese/<cpf>/<id>.pdf.
func ArchiveKey(cpf, id string) string {
	return path.Join("anamnese", cpf, fmt.Sprintf("%s.pdf", id))
}
