package ledger

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/davidbz/foresight/internal/domain"
)

// FileBalanceStore persists balances as a JSON object mapping quota keys to
// remaining token counts, rewritten in full after every debit.
type FileBalanceStore struct {
	path string
}

// NewFileBalanceStore creates a store writing to path.
func NewFileBalanceStore(path string) *FileBalanceStore {
	return &FileBalanceStore{path: path}
}

// Load reads persisted balances. A missing file means no prior consumption.
func (s *FileBalanceStore) Load() (map[string]int64, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read balances: %w", err)
	}

	var balances map[string]int64
	if err := json.Unmarshal(raw, &balances); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	return balances, nil
}

// Save replaces the persisted balances.
func (s *FileBalanceStore) Save(balances map[string]int64) error {
	raw, err := json.MarshalIndent(balances, "", "  ")
	if err != nil {
		return fmt.Errorf("encode balances: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write balances: %w", err)
	}
	return nil
}

var auditHeader = []string{
	"timestamp",
	"model",
	"provider",
	"input_tokens",
	"output_tokens",
	"remaining_tokens",
	"balance_key",
}

// CSVAuditWriter appends usage records to a CSV file. The header row is
// written once, when the file does not yet exist.
type CSVAuditWriter struct {
	path string
}

// NewCSVAuditWriter creates a writer appending to path.
func NewCSVAuditWriter(path string) *CSVAuditWriter {
	return &CSVAuditWriter{path: path}
}

// Append writes one record.
func (w *CSVAuditWriter) Append(record domain.UsageRecord) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	_, statErr := os.Stat(w.path)
	needHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needHeader {
		if err := cw.Write(auditHeader); err != nil {
			return fmt.Errorf("write audit header: %w", err)
		}
	}

	remaining := strconv.FormatInt(record.Remaining, 10)
	if record.BalanceKey == UnmappedKey {
		remaining = UnmappedKey
	}
	row := []string{
		record.Timestamp.UTC().Format(time.RFC3339),
		record.Model,
		record.Provider,
		strconv.Itoa(record.InputTokens),
		strconv.Itoa(record.OutputTokens),
		remaining,
		record.BalanceKey,
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush audit row: %w", err)
	}
	return nil
}
