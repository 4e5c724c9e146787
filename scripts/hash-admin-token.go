package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/talentsync/talentsync/internal/auth"
)

type output struct {
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
}

func main() {
	var (
		token  = flag.String("token", "", "Token to hash; generated when empty")
		format = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	plaintext := *token
	if plaintext == "" {
		var err error
		plaintext, err = generateToken()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate token:", err)
			os.Exit(1)
		}
	}

	hash, err := auth.HashToken(plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash token:", err)
		os.Exit(1)
	}

	switch *format {
	case "plain":
		fmt.Println("token:          ", plaintext)
		fmt.Println("ADMIN_TOKEN_HASH:", hash)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output{Token: plaintext, TokenHash: hash})
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
