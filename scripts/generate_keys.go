//go:build ignore

// This script generates secure random API keys for the dashboard.
// Run with: go run scripts/generate_keys.go
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

func generateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}

func main() {
	fmt.Println("=== Revdash API Key Generator ===")
	fmt.Println()

	keys := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		key, err := generateSecureKey(24)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating API key: %v\n", err)
			os.Exit(1)
		}
		keys = append(keys, key)
	}

	fmt.Println("Add to your .env file:")
	fmt.Println()
	fmt.Printf("API_KEYS=%s\n", strings.Join(keys, ","))
	fmt.Println()
	fmt.Println("Clients send a key in the X-API-Key header (or api_key query parameter).")
}
