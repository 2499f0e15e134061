// Package research turns a forecasting question into a background brief. It
// decomposes the question into drivers, derives search queries, retrieves
// candidate documents, promotes them through the relevance funnel and
// consolidates the extracted text. Document retrieval and prompt rendering
// are injected collaborators; this package never inspects template content
// or retrieval internals.
package research

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/davidbz/foresight/internal/config"
	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/funnel"
	"github.com/davidbz/foresight/internal/observability"
	"github.com/davidbz/foresight/internal/retry"
	"github.com/davidbz/foresight/internal/runner"
)

// Service builds research briefs.
type Service struct {
	completer retry.Completer
	renderer  domain.PromptRenderer
	source    domain.CandidateSource
	funnel    *funnel.Funnel
	events    domain.EventPublisher
	cfg       *config.ResearchConfig
}

// New creates a research service. completer must already enforce the shared
// rate ceiling; events may be nil.
func New(
	completer retry.Completer,
	renderer domain.PromptRenderer,
	source domain.CandidateSource,
	fun *funnel.Funnel,
	events domain.EventPublisher,
	cfg *config.ResearchConfig,
) *Service {
	return &Service{
		completer: completer,
		renderer:  renderer,
		source:    source,
		funnel:    fun,
		events:    events,
		cfg:       cfg,
	}
}

func (s *Service) policy() retry.Policy {
	return retry.Policy{
		MaxRetries:    s.cfg.MaxRetries,
		RepairRetries: s.cfg.RepairRetries,
		RepairModel:   s.cfg.RepairModel,
	}
}

// BuildBrief runs the whole pipeline for one question. Failures of
// individual queries or candidates shrink the brief; they never abort it.
func (s *Service) BuildBrief(ctx context.Context, question domain.QuestionMetadata) (*domain.Brief, error) {
	logger := observability.FromContext(ctx)

	drivers, err := s.DecomposeDrivers(ctx, question)
	if err != nil {
		logger.Warn("driver decomposition failed, continuing without drivers", zap.Error(err))
		drivers = nil
	}
	s.publish(ctx, "research.drivers.decomposed", map[string]interface{}{"count": len(drivers)})

	queries := s.collectQueries(ctx, question, drivers)
	if len(queries) == 0 {
		logger.Warn("no search queries produced, returning drivers-only brief")
		return &domain.Brief{Question: question, Drivers: drivers}, nil
	}
	s.publish(ctx, "research.queries.collected", map[string]interface{}{"count": len(queries)})

	candidates := s.retrieveCandidates(ctx, queries)
	s.publish(ctx, "research.candidates.retrieved", map[string]interface{}{"count": len(candidates)})

	promoted := s.funnel.Filter(ctx, candidates,
		s.scorer(s.cfg.CheapModel, question, drivers, queries),
		s.scorer(s.cfg.StrongModel, question, drivers, queries),
		funnel.Options{
			CoarseThreshold: s.cfg.CoarseThreshold,
			FineThreshold:   s.cfg.FineThreshold,
			Cap:             s.cfg.CandidateCap,
			MaxWorkers:      s.cfg.MaxWorkers,
		})
	s.publish(ctx, "research.candidates.promoted", map[string]interface{}{"count": len(promoted)})

	extracts := make([]domain.Extract, 0, len(promoted))
	for _, candidate := range promoted {
		extract, err := s.ExtractSections(ctx, candidate.ID, drivers)
		if err != nil {
			logger.Warn("section extraction failed, dropping candidate",
				zap.String("candidate_id", candidate.ID),
				zap.Error(err),
			)
			continue
		}
		if extract.PageSummary == "" {
			continue
		}
		extracts = append(extracts, extract)
	}

	return &domain.Brief{
		Question: question,
		Drivers:  drivers,
		Queries:  queries,
		Extracts: extracts,
	}, nil
}

// collectQueries merges question-derived and driver-derived queries,
// de-duplicated, in first-seen order. Either source failing is logged and
// skipped.
func (s *Service) collectQueries(ctx context.Context, question domain.QuestionMetadata, drivers []string) []string {
	logger := observability.FromContext(ctx)

	var queries []string
	if qs, err := s.QuestionToQueries(ctx, question); err != nil {
		logger.Warn("question-to-queries failed", zap.Error(err))
	} else {
		queries = append(queries, qs...)
	}

	if len(drivers) > 0 {
		if qs, err := s.DriversToQueries(ctx, question, drivers); err != nil {
			logger.Warn("drivers-to-queries failed", zap.Error(err))
		} else {
			queries = append(queries, qs...)
		}
	}

	seen := make(map[string]struct{}, len(queries))
	unique := queries[:0]
	for _, q := range queries {
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, q)
	}
	return unique
}

// retrieveCandidates searches every query and fetches summaries for the
// union of returned IDs. The rate limiter is not passed to the runner here:
// retrieval calls the candidate source, not a completion backend.
func (s *Service) retrieveCandidates(ctx context.Context, queries []string) []domain.Candidate {
	idLists := runner.Run(ctx, queries, s.cfg.MaxWorkers, nil,
		func(ctx context.Context, query string) ([]string, error) {
			return s.source.Search(ctx, query, s.cfg.SearchLimit)
		})

	seen := make(map[string]struct{})
	var ids []string
	for _, list := range idLists {
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return runner.Run(ctx, ids, s.cfg.MaxWorkers, nil,
		func(ctx context.Context, id string) (domain.Candidate, error) {
			summary, err := s.source.Summary(ctx, id)
			if err != nil {
				return domain.Candidate{}, err
			}
			return domain.Candidate{ID: id, Summary: summary}, nil
		})
}

func (s *Service) publish(ctx context.Context, event string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event, data)
}
