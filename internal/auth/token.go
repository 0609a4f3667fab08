package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LinkTokenLength é o tamanho dos tokens de acesso do paciente.
const LinkTokenLength = 22

// RandomToken gera token alfanumérico com distribuição uniforme.
func RandomToken(length int) (string, error) {
	if length <= 0 {
		length = LinkTokenLength
	}
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// EqualSecret compara segredos em tempo constante.
func EqualSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
