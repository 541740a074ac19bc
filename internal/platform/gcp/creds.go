package gcp

import (
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// clientOptions builds storage client options from cfg.Credentials, which
// holds either inline service-account JSON or a path to a credentials file.
// Empty means application default credentials.
func clientOptions(cfg ObjectStorageConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	creds := strings.TrimSpace(cfg.Credentials)
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}
