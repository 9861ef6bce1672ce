package config

import "context"

// SecretProvider resolves the values behind _SSM_PARAM indirections.
//
// GetParametersBatch returns a map of key -> plaintext value for every key it
// could resolve. Keys it cannot resolve are left out of the map; the loader
// reports them as missing.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
