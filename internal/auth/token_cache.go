// Package auth owns OAuth credentials for both platforms: disk cache, silent
// refresh, and the interactive authorization flow.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dzx-app/dzx/internal/services"
	"golang.org/x/oauth2"
)

// TokenCache persists per-platform OAuth tokens as a single JSON document.
type TokenCache struct {
	path string
}

// NewTokenCache creates a TokenCache at the given path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path returns the file path where tokens are stored.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads all cached tokens from disk.
//
// A missing file returns an empty map, not an error.
func (c *TokenCache) Load() (map[services.Platform]*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[services.Platform]*oauth2.Token{}, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tokens map[services.Platform]*oauth2.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if tokens == nil {
		tokens = map[services.Platform]*oauth2.Token{}
	}
	return tokens, nil
}

// Save writes all tokens to disk, creating the parent directory if needed.
// File mode is 0600; tokens are credentials.
func (c *TokenCache) Save(tokens map[services.Platform]*oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the token file. Returns nil if it does not exist.
func (c *TokenCache) Delete() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
