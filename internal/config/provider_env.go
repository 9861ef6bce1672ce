package config

import (
	"context"
	"os"
	"strings"
)

// EnvVarProvider implements SecretProvider on top of the process environment.
// It lets CI and local runs stand in for Parameter Store: a key is looked up
// verbatim first, then under its environment form, so the parameter
// /dev/enginehost/engine/home may be supplied as DEV_ENGINEHOST_ENGINE_HOME.
type EnvVarProvider struct {
	lookupEnv envLookup
}

// NewEnvVarProvider creates a new EnvVarProvider backed by os.LookupEnv.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{lookupEnv: os.LookupEnv}
}

// GetParametersBatch resolves each key from the environment. Missing keys are
// silently omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := p.lookupEnv(key); ok {
			result[key] = val
			continue
		}
		if val, ok := p.lookupEnv(envName(key)); ok {
			result[key] = val
		}
	}
	return result, nil
}

// envName maps a parameter path to an environment variable name:
// separators become underscores and letters are upper-cased.
func envName(path string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, strings.Trim(path, "/"))
	return name
}
