package auth

import (
	"strings"

	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o valor para a coluna senha_hash da aba Auth.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash Argon2id (parâmetros lidos do próprio hash).
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

// IsHash indica se o valor armazenado já está no formato Argon2id.
func IsHash(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "$argon2id$")
}
