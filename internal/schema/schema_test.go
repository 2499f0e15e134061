package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/schema"
)

type driverPlan struct {
	Summary     string   `json:"summary"`
	Confidence  float64  `json:"confidence"`
	DriversList []string `json:"drivers_list"`
	Score       int      `json:"score"`
	Final       bool     `json:"final"`
	Notes       any      `json:"notes"`
	internal    string   // unexported, never part of the schema
	Skipped     string   `json:"-"`
}

func TestFor(t *testing.T) {
	t.Run("should describe exported json fields in order", func(t *testing.T) {
		spec := schema.For[driverPlan]()

		require.Equal(t, []schema.Field{
			{Name: "summary", Type: "string"},
			{Name: "confidence", Type: "number"},
			{Name: "drivers_list", Type: "list of string"},
			{Name: "score", Type: "integer"},
			{Name: "final", Type: "boolean"},
			{Name: "notes", Type: "any"},
		}, spec.Fields)
	})

	t.Run("should render a repair-prompt description", func(t *testing.T) {
		type small struct {
			Reason string `json:"reason"`
			Score  int    `json:"score"`
		}

		require.Equal(t, `{"reason": string, "score": integer}`, schema.For[small]().String())
	})

	t.Run("should fall back to the field name without a json tag", func(t *testing.T) {
		type untagged struct {
			Reason string
		}

		spec := schema.For[untagged]()
		require.Equal(t, []schema.Field{{Name: "Reason", Type: "string"}}, spec.Fields)
	})
}

func TestDecode(t *testing.T) {
	type relevance struct {
		Reason   string `json:"reason"`
		Decision string `json:"decision"`
		Score    int    `json:"score"`
	}

	t.Run("should decode a fully populated object", func(t *testing.T) {
		out, err := schema.Decode[relevance](`{"reason": "on topic", "decision": "yes", "score": 4}`)
		require.NoError(t, err)
		require.Equal(t, relevance{Reason: "on topic", Decision: "yes", Score: 4}, out)
	})

	t.Run("should tolerate surrounding whitespace", func(t *testing.T) {
		out, err := schema.Decode[relevance]("\n  {\"reason\": \"r\", \"decision\": \"no\", \"score\": 0}  \n")
		require.NoError(t, err)
		require.Equal(t, "no", out.Decision)
	})

	t.Run("should reject missing fields and name them", func(t *testing.T) {
		_, err := schema.Decode[relevance](`{"reason": "r"}`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "decision")
		require.Contains(t, err.Error(), "score")
	})

	t.Run("should treat explicit null as missing", func(t *testing.T) {
		_, err := schema.Decode[relevance](`{"reason": "r", "decision": null, "score": 1}`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "decision")
	})

	t.Run("should reject type mismatches", func(t *testing.T) {
		_, err := schema.Decode[relevance](`{"reason": "r", "decision": "yes", "score": "high"}`)
		require.Error(t, err)
	})

	t.Run("should reject non-object text", func(t *testing.T) {
		for _, text := range []string{"", "   ", "plain prose", `["a", "b"]`, `42`} {
			_, err := schema.Decode[relevance](text)
			require.Error(t, err, "text %q", text)
		}
	})

	t.Run("should ignore extra fields", func(t *testing.T) {
		out, err := schema.Decode[relevance](`{"reason": "r", "decision": "yes", "score": 2, "extra": true}`)
		require.NoError(t, err)
		require.Equal(t, 2, out.Score)
	})
}
