package patient

import "errors"

// ErrValidation marca falhas de validação resolvíveis localmente.
var ErrValidation = errors.New("validação")

// ValidationError aponta o campo inválido e a mensagem exibida.
// Level segue a convenção da interface: "warn" ou "err".
type ValidationError struct {
	Field   string
	Message string
	Level   string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func warnf(field, msg string) error {
	return &ValidationError{Field: field, Message: msg, Level: "warn"}
}

func errf(field, msg string) error {
	return &ValidationError{Field: field, Message: msg, Level: "err"}
}
