package util

import "strings"

// OnlyDigits remove tudo que não for dígito ASCII.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ValidateCPF confere tamanho, repetição e os dois dígitos verificadores.
// Entradas malformadas retornam false.
func ValidateCPF(cpf string) bool {
	d := OnlyDigits(cpf)
	if len(d) != 11 || isRepdigit(d) {
		return false
	}

	if cpfCheckDigit(d[:9], 10) != int(d[9]-'0') {
		return false
	}
	return cpfCheckDigit(d[:10], 11) == int(d[10]-'0')
}

// cpfCheckDigit aplica pesos decrescentes a partir de weight e a regra (soma*10) mod 11.
func cpfCheckDigit(digits string, weight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 || rest == 11 {
		rest = 0
	}
	return rest
}

func isRepdigit(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
