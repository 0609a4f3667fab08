package util

import "fmt"

// NormalizePhone converte o número para a forma discável +55DDNNNNNNNNN.
//
// É uma heurística e não uma validação E.164: assume numeração brasileira.
// Números com 12 ou 13 dígitos são aceitos como já contendo o código do país,
// qualquer que seja ele. Retorna "" quando o número é inválido.
func NormalizePhone(input string) string {
	d := OnlyDigits(input)
	if d == "" {
		return ""
	}
	switch {
	case len(d) == 10 || len(d) == 11:
		return "+55" + d
	case len(d) >= 12 && len(d) <= 13:
		return "+" + d
	}
	return ""
}

// FormatPhoneDisplay agrupa dígitos parcialmente digitados como
// "(DD) D DDDD-DDDD", "(DD) DDDD-DDDD" ou "(DD) D". Serve só para exibição.
func FormatPhoneDisplay(input string) string {
	d := OnlyDigits(input)
	if len(d) > 13 {
		d = d[:13]
	}
	if len(d) >= 2 && d[:2] == "55" {
		d = d[2:]
	}
	if len(d) <= 2 {
		return d
	}

	ddd := d[:2]
	rest := d[2:]
	switch {
	case len(rest) >= 9:
		return fmt.Sprintf("(%s) %s %s-%s", ddd, rest[:1], rest[1:5], rest[5:9])
	case len(rest) >= 5:
		return fmt.Sprintf("(%s) %s-%s", ddd, rest[:4], clamp(rest, 4, 8))
	}
	return fmt.Sprintf("(%s) %s", ddd, rest)
}

func clamp(s string, from, to int) string {
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
