package gateway

import (
	"testing"

	"github.com/poiesic/billscan/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TokenFromConfig(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	provider, err := New(ai.NewConfig(ai.WithToken("pk-test")))
	require.NoError(t, err)
	assert.Equal(t, "portkey/gpt-4o-mini", provider.Name())
}

func TestNew_TokenFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "pk-env")

	provider, err := New(ai.NewConfig(ai.WithModel("gpt-4o")))
	require.NoError(t, err)
	assert.Equal(t, "portkey/gpt-4o", provider.Name())
}

func TestNew_MissingToken(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	_, err := New(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrMissingCredentials)
	assert.Contains(t, err.Error(), EnvAPIKey)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(ai.NewConfig(ai.WithDefaultMaxTokens(-1)))
	assert.Error(t, err)
}
