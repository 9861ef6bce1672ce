package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ SecretProvider = (*EnvVarProvider)(nil)

func TestEnvVarProviderResolvesSetVariables(t *testing.T) {
	t.Setenv("ENGINEHOST_TEST_HOME", "/opt/engine")
	t.Setenv("ENGINEHOST_TEST_EMPTY", "")

	result, err := NewEnvVarProvider().GetParametersBatch(context.Background(),
		[]string{"ENGINEHOST_TEST_HOME", "ENGINEHOST_TEST_EMPTY", "ENGINEHOST_TEST_ABSENT"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"ENGINEHOST_TEST_HOME":  "/opt/engine",
		"ENGINEHOST_TEST_EMPTY": "",
	}, result)
}

func TestEnvVarProviderResolvesParameterPaths(t *testing.T) {
	env := map[string]string{
		"DEV_ENGINEHOST_ENGINE_HOME":    "/opt/engine",
		"/dev/enginehost/engine/logs":   "verbatim wins",
		"DEV_ENGINEHOST_ENGINE_LOGS":    "derived",
		"PROD_ENGINEHOST_SENSITIVE_KEY": "token",
	}
	p := &EnvVarProvider{lookupEnv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	result, err := p.GetParametersBatch(context.Background(), []string{
		"/dev/enginehost/engine/home",
		"/dev/enginehost/engine/logs",
		"/prod/enginehost/sensitive-key",
		"/dev/enginehost/missing",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"/dev/enginehost/engine/home":    "/opt/engine",
		"/dev/enginehost/engine/logs":    "verbatim wins",
		"/prod/enginehost/sensitive-key": "token",
	}, result)
}

func TestEnvVarProviderEmptyKeys(t *testing.T) {
	result, err := NewEnvVarProvider().GetParametersBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/dev/enginehost/engine/home", "DEV_ENGINEHOST_ENGINE_HOME"},
		{"staging/engine-host/v2", "STAGING_ENGINE_HOST_V2"},
		{"ALREADY_UPPER", "ALREADY_UPPER"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envName(tt.in))
		})
	}
}
