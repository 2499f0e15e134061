package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/retry"
)

type relevanceResponse struct {
	Background  string `json:"background"`
	PageSummary string `json:"page_summary"`
	Reason      string `json:"reason"`
	Decision    string `json:"decision"`
	Score       int    `json:"score"`
}

// summaryScorer scores a candidate's summary against the question, drivers
// and queries. The model decides coarse vs fine: the same contract runs on a
// cheap backend first and a strong one for promoted candidates.
type summaryScorer struct {
	service  *Service
	model    string
	question domain.QuestionMetadata
	drivers  []string
	queries  []string
}

func (s *Service) scorer(model string, question domain.QuestionMetadata, drivers, queries []string) *summaryScorer {
	return &summaryScorer{
		service:  s,
		model:    model,
		question: question,
		drivers:  drivers,
		queries:  queries,
	}
}

// SummaryRelevance is the binary reading of the relevance evaluation: yes
// and maybe decisions both count as relevant.
func (s *Service) SummaryRelevance(ctx context.Context, model string, question domain.QuestionMetadata, drivers, queries []string, candidate domain.Candidate) (bool, error) {
	return s.scorer(model, question, drivers, queries).Relevant(ctx, candidate)
}

// Score returns the discrete relevance score for one candidate.
func (sc *summaryScorer) Score(ctx context.Context, candidate domain.Candidate) (int, error) {
	resp, err := sc.evaluate(ctx, candidate)
	if err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// Relevant is the binary reading of the same evaluation: yes and maybe both
// count as relevant.
func (sc *summaryScorer) Relevant(ctx context.Context, candidate domain.Candidate) (bool, error) {
	resp, err := sc.evaluate(ctx, candidate)
	if err != nil {
		return false, err
	}
	decision := strings.ToLower(resp.Decision)
	return strings.Contains(decision, "yes") || strings.Contains(decision, "maybe"), nil
}

func (sc *summaryScorer) evaluate(ctx context.Context, candidate domain.Candidate) (*relevanceResponse, error) {
	messages, err := sc.service.renderer.Render(ctx, "summary_relevance", map[string]any{
		"page_summary": candidate.Summary,
		"question":     sc.question.Question,
		"drivers":      strings.Join(sc.drivers, ", "),
		"queries":      strings.Join(sc.queries, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render summary_relevance: %w", err)
	}

	resp, err := retry.Completion[relevanceResponse](ctx, sc.service.completer, &domain.CompletionRequest{
		Model:    sc.model,
		Messages: messages,
	}, sc.service.policy())
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
