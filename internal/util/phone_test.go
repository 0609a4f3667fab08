package util

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"11987654321", "+5511987654321"},
		{"5511987654321", "+5511987654321"},
		{"(11) 9 8765-4321", "+5511987654321"},
		{"1133334444", "+551133334444"},
		{"351912345678", "+351912345678"},
		{"123", ""},
		{"", ""},
		{"12345678901234", ""},
	}

	for _, tc := range tests {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, esperado %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneStableOnNormalizedDigits(t *testing.T) {
	first := NormalizePhone("11987654321")
	if again := NormalizePhone(OnlyDigits(first)); again != first {
		t.Fatalf("renormalização mudou o valor: %q -> %q", first, again)
	}
}

func TestFormatPhoneDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"11", "11"},
		{"119", "(11) 9"},
		{"1198765", "(11) 9876-5"},
		{"1133334444", "(11) 3333-4444"},
		{"11987654321", "(11) 9 8765-4321"},
		{"+55 11 98765-4321", "(11) 9 8765-4321"},
		{"5511987654321999", "(11) 9 8765-4321"},
	}

	for _, tc := range tests {
		if got := FormatPhoneDisplay(tc.in); got != tc.want {
			t.Fatalf("FormatPhoneDisplay(%q) = %q, esperado %q", tc.in, got, tc.want)
		}
	}
}
