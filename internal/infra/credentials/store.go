package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"contentstudio/internal/infra"
	"contentstudio/internal/sqlinline"
)

const (
	// ProviderFunctions holds the bearer key for the backend generation functions.
	ProviderFunctions = "functions"
	// ProviderYouTube holds the OAuth refresh token used for publishing.
	ProviderYouTube = "youtube"
)

// Providers lists the integration names accepted by the store.
var Providers = []string{ProviderFunctions, ProviderYouTube}

// ErrUnknownProvider is returned for provider names outside Providers.
var ErrUnknownProvider = errors.New("unknown integration provider")

// Store reads and writes integration secrets kept in the integration_tokens table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// FunctionsAPIKey returns the stored functions key, or "" when none is stored.
func (s *Store) FunctionsAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderFunctions)
}

// YouTubeRefreshToken returns the stored YouTube refresh token, or "".
func (s *Store) YouTubeRefreshToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderYouTube)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Set stores token for provider, replacing any previous value.
func (s *Store) Set(ctx context.Context, provider, token string, props map[string]any) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !knownProvider(provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s token is required", provider)
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

func knownProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}
