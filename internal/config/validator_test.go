package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "shops")
	t.Setenv("API_KEY", "key")
}

func TestValidateEnv(t *testing.T) {
	t.Run("passes with everything set", func(t *testing.T) {
		setRequiredEnv(t)
		assert.NoError(t, ValidateEnv())
	})

	t.Run("names every missing variable", func(t *testing.T) {
		clearEnvVars(t)
		err := ValidateEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_USER")
		assert.Contains(t, err.Error(), "API_KEY")
	})
}

func TestValidateEnvWithWarnings(t *testing.T) {
	t.Run("clean env has no warnings", func(t *testing.T) {
		setRequiredEnv(t)
		warnings, err := ValidateEnvWithWarnings()
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("flags placeholder credentials", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DB_PASSWORD", "postgres")
		t.Setenv("API_KEY", "changeme")

		warnings, err := ValidateEnvWithWarnings()
		require.NoError(t, err)
		assert.Len(t, warnings, 2)
	})
}
