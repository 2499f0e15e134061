package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/config"
)

func writeQuotas(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQuotas(t *testing.T) {
	t.Run("should load a valid quota table", func(t *testing.T) {
		path := writeQuotas(t, `
quotas:
  openai-strong:
    starting_balance: 2000000
    models:
      - gpt-4-turbo
      - gpt-4
  openai-cheap:
    starting_balance: 5000000
    models:
      - gpt-3.5-turbo
`)

		table, err := config.LoadQuotas(path)
		require.NoError(t, err)
		require.Len(t, table.Quotas, 2)
		require.Equal(t, int64(2000000), table.Quotas["openai-strong"].StartingBalance)
		require.Equal(t, []string{"gpt-3.5-turbo"}, table.Quotas["openai-cheap"].Models)
	})

	t.Run("should fail when the file is missing", func(t *testing.T) {
		_, err := config.LoadQuotas(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := writeQuotas(t, "quotas: [not: a: table")

		_, err := config.LoadQuotas(path)
		require.Error(t, err)
	})

	t.Run("should reject an empty table", func(t *testing.T) {
		path := writeQuotas(t, "quotas: {}")

		_, err := config.LoadQuotas(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no quota keys")
	})

	t.Run("should reject a model routed to two keys", func(t *testing.T) {
		path := writeQuotas(t, `
quotas:
  first:
    starting_balance: 100
    models: [gpt-4]
  second:
    starting_balance: 100
    models: [GPT_4]
`)

		_, err := config.LoadQuotas(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "routed to both")
	})

	t.Run("should reject negative starting balances", func(t *testing.T) {
		path := writeQuotas(t, `
quotas:
  broke:
    starting_balance: -1
    models: [gpt-4]
`)

		_, err := config.LoadQuotas(path)
		require.Error(t, err)
	})

	t.Run("should reject a key with no models", func(t *testing.T) {
		path := writeQuotas(t, `
quotas:
  orphan:
    starting_balance: 100
    models: []
`)

		_, err := config.LoadQuotas(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no models")
	})
}

func TestNormalizeModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gpt-4-turbo", "gpt4turbo"},
		{"GPT_4.Turbo", "gpt4turbo"},
		{"  anthropic/claude-3 ", "anthropicclaude3"},
		{"echo4", "echo4"},
		{"", ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, config.NormalizeModel(tt.in), "input %q", tt.in)
	}
}
