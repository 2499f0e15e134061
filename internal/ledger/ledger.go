// Package ledger accounts token consumption against configured quota keys.
// Balances are debited and persisted per call, never batched, so a crash
// immediately after a call cannot lose the debit. Every call attempt is also
// appended to an audit trail, including calls whose model maps to no quota.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/config"
	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
)

// UnmappedKey marks audit rows for models with no quota mapping.
const UnmappedKey = "N/A"

// BalanceStore persists remaining balances per quota key.
type BalanceStore interface {
	Load() (map[string]int64, error)
	Save(balances map[string]int64) error
}

// AuditWriter appends usage records to the audit trail.
type AuditWriter interface {
	Append(record domain.UsageRecord) error
}

// Service implements domain.UsageRecorder.
type Service struct {
	mu       sync.Mutex
	routes   map[string]string // exact model name -> quota key
	normed   map[string]string // normalized model name -> quota key
	balances map[string]int64
	store    BalanceStore
	audit    AuditWriter
	clock    func() time.Time
}

// Option tunes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New builds the ledger from the validated quota table. Quota keys present
// in the persisted balances keep their already-decremented value; keys added
// since the last run start from their configured balance. Consumption is
// therefore monotonic per key across restarts.
func New(table *config.QuotaTable, store BalanceStore, audit AuditWriter, opts ...Option) (*Service, error) {
	s := &Service{
		routes:   make(map[string]string),
		normed:   make(map[string]string),
		balances: make(map[string]int64),
		store:    store,
		audit:    audit,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	persisted := map[string]int64{}
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			observability.FromContext(context.Background()).Warn(
				"balance ledger unavailable, starting from configured balances",
				zap.Error(err),
			)
		} else if loaded != nil {
			persisted = loaded
		}
	}

	for key, quota := range table.Quotas {
		if remaining, ok := persisted[key]; ok {
			s.balances[key] = remaining
		} else {
			s.balances[key] = quota.StartingBalance
		}
		for _, model := range quota.Models {
			s.routes[model] = key
			s.normed[config.NormalizeModel(model)] = key
		}
	}

	return s, nil
}

// Record debits the quota mapped to model by input+output tokens, persists
// the balance and appends an audit row. Unmapped models are audited with the
// unmapped marker and no balance is touched anywhere; usage is never
// silently dropped.
func (s *Service) Record(ctx context.Context, model, provider string, inputTokens, outputTokens int) (int64, bool) {
	logger := observability.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.quotaKey(model)
	if !ok {
		logger.Warn("model has no quota mapping, auditing only",
			zap.String("model", model),
			zap.Error(domain.ErrNoQuotaMapping),
		)
		s.append(ctx, domain.UsageRecord{
			Timestamp:    s.clock(),
			Model:        model,
			Provider:     provider,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Remaining:    0,
			BalanceKey:   UnmappedKey,
		})
		return 0, false
	}

	s.balances[key] -= int64(inputTokens) + int64(outputTokens)
	remaining := s.balances[key]

	if s.store != nil {
		if err := s.store.Save(s.cloneBalances()); err != nil {
			logger.Warn("failed to persist balances, in-memory ledger still applies",
				zap.Error(err),
			)
		}
	}

	s.append(ctx, domain.UsageRecord{
		Timestamp:    s.clock(),
		Model:        model,
		Provider:     provider,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Remaining:    remaining,
		BalanceKey:   key,
	})

	return remaining, true
}

// Balance returns the remaining balance for a quota key.
func (s *Service) Balance(key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, ok := s.balances[key]
	return remaining, ok
}

func (s *Service) quotaKey(model string) (string, bool) {
	if key, ok := s.routes[model]; ok {
		return key, true
	}
	key, ok := s.normed[config.NormalizeModel(model)]
	return key, ok
}

func (s *Service) append(ctx context.Context, record domain.UsageRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(record); err != nil {
		observability.FromContext(ctx).Warn("failed to append audit record",
			zap.Error(err),
		)
	}
}

func (s *Service) cloneBalances() map[string]int64 {
	out := make(map[string]int64, len(s.balances))
	for k, v := range s.balances {
		out[k] = v
	}
	return out
}

var _ domain.UsageRecorder = (*Service)(nil)
