// Package funnel promotes candidates through a coarse-to-fine relevance
// filter. Every candidate gets a cheap coarse evaluation; only when more
// candidates survive than the caller can afford does the expensive fine
// round run, and then only over the survivors.
package funnel

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/observability"
	"github.com/davidbz/foresight/internal/runner"
)

// Scorer assigns a discrete relevance score to one candidate.
type Scorer interface {
	Score(ctx context.Context, candidate domain.Candidate) (int, error)
}

// Options controls one Filter call.
type Options struct {
	// CoarseThreshold keeps candidates scoring at least this in the coarse round.
	CoarseThreshold int

	// FineThreshold keeps candidates scoring at least this in the fine
	// round. Must be >= CoarseThreshold; lower values are raised to it.
	FineThreshold int

	// Cap is the survivor count above which the fine round runs.
	Cap int

	// MaxWorkers bounds scoring concurrency.
	MaxWorkers int
}

// Funnel filters candidate sets. It owns no state beyond one call's
// intermediate lists.
type Funnel struct {
	limiter domain.Limiter
	events  domain.EventPublisher
}

// New creates a funnel. limiter and events may be nil.
func New(limiter domain.Limiter, events domain.EventPublisher) *Funnel {
	return &Funnel{limiter: limiter, events: events}
}

type scored struct {
	candidate domain.Candidate
	score     int
}

// Filter returns the candidates surviving the coarse round and, when the
// survivors exceed opts.Cap, the fine round as well. Input candidates are
// de-duplicated by ID before any scoring. Output order is not significant.
func (f *Funnel) Filter(ctx context.Context, candidates []domain.Candidate, coarse, fine Scorer, opts Options) []domain.Candidate {
	logger := observability.FromContext(ctx)

	if opts.FineThreshold < opts.CoarseThreshold {
		logger.Warn("fine threshold below coarse threshold, raising it",
			zap.Int("coarse_threshold", opts.CoarseThreshold),
			zap.Int("fine_threshold", opts.FineThreshold),
		)
		opts.FineThreshold = opts.CoarseThreshold
	}

	unique := dedupe(candidates)

	survivors := f.round(ctx, unique, coarse, opts.CoarseThreshold, opts.MaxWorkers)
	f.publish(ctx, "funnel.coarse.completed", len(unique), len(survivors))

	if len(survivors) <= opts.Cap {
		// Already affordable: skip the expensive round entirely.
		return survivors
	}

	promoted := f.round(ctx, survivors, fine, opts.FineThreshold, opts.MaxWorkers)
	f.publish(ctx, "funnel.fine.completed", len(survivors), len(promoted))

	return promoted
}

func (f *Funnel) round(ctx context.Context, candidates []domain.Candidate, scorer Scorer, threshold, maxWorkers int) []domain.Candidate {
	results := runner.Run(ctx, candidates, maxWorkers, f.limiter,
		func(ctx context.Context, c domain.Candidate) (scored, error) {
			score, err := scorer.Score(ctx, c)
			if err != nil {
				return scored{}, err
			}
			return scored{candidate: c, score: score}, nil
		})

	kept := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		if r.score >= threshold {
			kept = append(kept, r.candidate)
		}
	}
	return kept
}

func (f *Funnel) publish(ctx context.Context, event string, evaluated, kept int) {
	if f.events == nil {
		return
	}
	f.events.Publish(ctx, event, map[string]interface{}{
		"evaluated": evaluated,
		"kept":      kept,
	})
}

func dedupe(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}
