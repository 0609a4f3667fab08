package util

import "testing"

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name string
		cpf  string
		want bool
	}{
		{"valido", "52998224725", true},
		{"valido com mascara", "529.982.247-25", true},
		{"ultimo digito alterado", "52998224726", false},
		{"primeiro verificador alterado", "52998224735", false},
		{"curto", "5299822472", false},
		{"longo", "529982247250", false},
		{"vazio", "", false},
		{"letras", "abcdefghijk", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateCPF(tc.cpf); got != tc.want {
				t.Fatalf("ValidateCPF(%q) = %v, esperado %v", tc.cpf, got, tc.want)
			}
		})
	}
}

func TestValidateCPFRejectsRepdigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		cpf := ""
		for i := 0; i < 11; i++ {
			cpf += string(d)
		}
		if ValidateCPF(cpf) {
			t.Fatalf("repdigit %s aceito", cpf)
		}
	}
}

func TestOnlyDigits(t *testing.T) {
	if got := OnlyDigits(" (11) 9.8765-4321 x"); got != "11987654321" {
		t.Fatalf("got %q", got)
	}
	if got := OnlyDigits(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
