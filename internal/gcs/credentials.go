package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadCredentials resolves a service account setting to its JSON key.
// The value may be the JSON itself, a gs:// URI or a local file path.
func LoadCredentials(ctx context.Context, value string, fetcher ObjectFetcher) ([]byte, error) {
	value = strings.TrimSpace(value)

	var data []byte
	switch {
	case value == "":
		return nil, fmt.Errorf("LoadCredentials: empty service account setting")
	case strings.HasPrefix(value, "{"):
		data = []byte(value)
	case strings.HasPrefix(value, "gs://"):
		b, err := fetcher.FetchFromGCS(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("LoadCredentials: %w", err)
		}
		data = b
	default:
		b, err := os.ReadFile(value)
		if err != nil {
			return nil, fmt.Errorf("LoadCredentials: reading key file: %w", err)
		}
		data = b
	}

	var key struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("LoadCredentials: service account key is not valid JSON: %w", err)
	}
	if key.Type == "" {
		return nil, fmt.Errorf("LoadCredentials: service account key has no type")
	}
	return data, nil
}

// ClientEmail returns the client_email of a service account key, or "" if absent.
// Spreadsheets must be shared with this address.
func ClientEmail(credentialsJSON []byte) string {
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(credentialsJSON, &key); err != nil {
		return ""
	}
	return key.ClientEmail
}
