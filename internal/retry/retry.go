// Package retry issues completion requests under a two-tier validation
// protocol. The inner tier repairs malformed-but-recoverable output with a
// cheap reformatting call; the outer tier regenerates from scratch when
// repair cannot help. Conflating the two into one flat retry wastes calls.
package retry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
	"github.com/davidbz/foresight/internal/schema"
)

const repairInstruction = "Repair the JSON string. It must meet this schema: %s. Return a valid JSON string only."

// Completer issues a single completion call and returns raw text.
type Completer interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (string, error)
}

// Policy holds the attempt budgets and the repair backend. The exact counts
// are deliberately configurable, not constants.
type Policy struct {
	// MaxRetries bounds full regeneration attempts.
	MaxRetries int

	// RepairRetries bounds parse attempts per generation; between parse
	// attempts the malformed text is sent to the repair model.
	RepairRetries int

	// RepairModel is the fast/cheap backend used for reformatting calls.
	RepairModel string
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.RepairRetries <= 0 {
		p.RepairRetries = 2
	}
	return p
}

// Completion issues req until the response parses into T or attempts are
// exhausted. Transport errors abort immediately; they are the caller's
// problem, not something regeneration can fix.
func Completion[T any](ctx context.Context, c Completer, req *domain.CompletionRequest, p Policy) (T, error) {
	var zero T
	p = p.withDefaults()
	logger := observability.FromContext(ctx)

	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		text, err := c.Complete(ctx, req)
		if err != nil {
			return zero, fmt.Errorf("generation call failed: %w", err)
		}

		out, err := repair[T](ctx, c, text, p)
		if err == nil {
			return out, nil
		}

		logger.Warn("generation attempt produced no valid response, regenerating",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", p.MaxRetries),
			zap.String("model", req.Model),
			zap.Error(err),
		)
	}

	return zero, fmt.Errorf("%d generation attempts for model %s: %w", p.MaxRetries, req.Model, domain.ErrRetryExhausted)
}

// repair is the inner tier: parse the current text, and on failure ask the
// repair backend to reformat it against the schema description. No repair
// call is made after the final failed parse.
func repair[T any](ctx context.Context, c Completer, text string, p Policy) (T, error) {
	var zero T
	logger := observability.FromContext(ctx)
	spec := schema.For[T]()

	for attempt := 1; attempt <= p.RepairRetries; attempt++ {
		out, err := schema.Decode[T](text)
		if err == nil {
			return out, nil
		}

		logger.Debug("response failed schema validation",
			zap.Int("parse_attempt", attempt),
			zap.String("schema", spec.String()),
			zap.Error(err),
		)

		if attempt == p.RepairRetries {
			break
		}

		repaired, rerr := c.Complete(ctx, &domain.CompletionRequest{
			Model: p.RepairModel,
			Messages: []domain.Message{
				{Role: "system", Content: fmt.Sprintf(repairInstruction, spec.String())},
				{Role: "user", Content: text},
			},
		})
		if rerr != nil {
			return zero, fmt.Errorf("repair call failed: %w", rerr)
		}
		text = repaired
	}

	return zero, fmt.Errorf("%d parse attempts: %w", p.RepairRetries, domain.ErrSchemaValidation)
}
