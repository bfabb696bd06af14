// Package auth resolves the opaque bearer token sent with backend requests.
// Providers are tried in order; the backend accepts anonymous requests, so
// having no token is a normal outcome reported as ErrNoToken.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnv is the environment variable read by EnvProvider.
const TokenEnv = "LEADGEN_TOKEN"

// ErrNoToken is returned when a provider has no credential to offer.
var ErrNoToken = errors.New("no auth token")

// TokenProvider defines the interface for obtaining the backend token.
type TokenProvider interface {
	GetToken() (string, error)
}

// StaticProvider returns a token fixed at construction, typically from the
// config file.
type StaticProvider struct {
	Token string
}

// GetToken returns the static token.
func (s *StaticProvider) GetToken() (string, error) {
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// EnvProvider obtains tokens from the LEADGEN_TOKEN environment variable.
type EnvProvider struct{}

// GetToken reads the LEADGEN_TOKEN environment variable.
func (e *EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnv))
	if token == "" {
		return "", fmt.Errorf("%s not set: %w", TokenEnv, ErrNoToken)
	}
	return token, nil
}

// FileProvider reads the token from a file. An empty Path means
// $XDG_CONFIG_HOME/leadgen/token.
type FileProvider struct {
	Path string
}

// DefaultTokenPath returns the token file location under the user config dir.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "leadgen", "token"), nil
}

// GetToken reads and trims the token file.
// A missing or empty file yields ErrNoToken.
func (f *FileProvider) GetToken() (string, error) {
	path := f.Path
	if path == "" {
		var err error
		if path, err = DefaultTokenPath(); err != nil {
			return "", err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("token file %s: %w", path, ErrNoToken)
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty: %w", path, ErrNoToken)
	}
	return token, nil
}

// Chain tries each provider in order and returns the first token found.
// Errors other than ErrNoToken stop the chain.
type Chain []TokenProvider

// GetToken implements TokenProvider.
func (c Chain) GetToken() (string, error) {
	for _, p := range c {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}

// Default returns the usual provider order: the configured token, then
// the environment, then the token file.
func Default(configured string) TokenProvider {
	return Chain{
		&StaticProvider{Token: configured},
		&EnvProvider{},
		&FileProvider{},
	}
}
