package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Quota is one logical budget bucket and the models routed to it.
type Quota struct {
	// StartingBalance seeds the balance ledger when no persisted balance
	// exists for the key.
	StartingBalance int64 `yaml:"starting_balance"`

	// Models lists every model name billed against this key. Matching is
	// exact first, then normalized (case and separator insensitive).
	Models []string `yaml:"models"`
}

// QuotaTable maps quota keys to their configuration. The table is the only
// source of model-to-quota routing; there is no call-time heuristic matching.
type QuotaTable struct {
	Quotas map[string]Quota `yaml:"quotas"`
}

// LoadQuotas reads and validates the quota routing table.
func LoadQuotas(path string) (*QuotaTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota table: %w", err)
	}

	var table QuotaTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse quota table: %w", err)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}

	return &table, nil
}

// Validate rejects empty tables, negative balances and models routed to more
// than one quota key. Run once at startup so routing surprises surface
// before any call is billed.
func (t *QuotaTable) Validate() error {
	if len(t.Quotas) == 0 {
		return fmt.Errorf("quota table has no quota keys")
	}

	seen := make(map[string]string)
	for key, quota := range t.Quotas {
		if key == "" {
			return fmt.Errorf("quota table contains an empty quota key")
		}
		if quota.StartingBalance < 0 {
			return fmt.Errorf("quota %s: starting balance must be >= 0", key)
		}
		if len(quota.Models) == 0 {
			return fmt.Errorf("quota %s: no models routed to it", key)
		}
		for _, model := range quota.Models {
			norm := NormalizeModel(model)
			if norm == "" {
				return fmt.Errorf("quota %s: empty model name", key)
			}
			if prev, dup := seen[norm]; dup && prev != key {
				return fmt.Errorf("model %s routed to both %s and %s", model, prev, key)
			}
			seen[norm] = key
		}
	}

	return nil
}

// NormalizeModel lowercases a model name and strips separator characters so
// "GPT-4-Turbo" and "gpt_4_turbo" route identically.
func NormalizeModel(model string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(model)) {
		switch r {
		case '-', '_', '.', ' ', ':', '/':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
