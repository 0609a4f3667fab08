// Command hashpass gera o valor da coluna senha_hash da aba Auth.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

func main() {
	password, err := readPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashpass: %v\n", err)
		os.Exit(1)
	}
	if err := util.ValidatePassword(password); err != nil {
		fmt.Fprintf(os.Stderr, "hashpass: %v\n", err)
		os.Exit(1)
	}

	hash, err := auth.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// readPassword aceita a senha como argumento ou, com "-", pela entrada padrão.
func readPassword() (string, error) {
	if len(os.Args) < 2 {
		return "", fmt.Errorf("uso: hashpass <senha> | hashpass - < arquivo")
	}
	if os.Args[1] != "-" {
		return os.Args[1], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("ler stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
