package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/retry"
)

const decomposeTemperature = 0.6

type driversResponse struct {
	Summary             string   `json:"summary"`
	FactorConsideration string   `json:"factor_consideration"`
	DriversList         []string `json:"drivers_list"`
}

type queriesResponse struct {
	InformationNeedSummary string   `json:"information_need_summary"`
	QueryBrainstorm        any      `json:"query_brainstorm"`
	SearchQueries          []string `json:"search_queries"`
}

type driverQueriesResponse struct {
	DriverUnderstanding string   `json:"driver_understanding"`
	QueryBrainstorm     any      `json:"query_brainstorm"`
	SearchQueries       []string `json:"search_queries"`
}

// DecomposeDrivers breaks the question into the factors that govern its
// resolution. Uses the strong model: driver quality bounds everything
// downstream.
func (s *Service) DecomposeDrivers(ctx context.Context, question domain.QuestionMetadata) ([]string, error) {
	messages, err := s.renderer.Render(ctx, "decompose_drivers", map[string]any{
		"question":            question.Question,
		"background":          question.Description,
		"resolution_criteria": question.ResolutionCriteria,
	})
	if err != nil {
		return nil, fmt.Errorf("render decompose_drivers: %w", err)
	}

	resp, err := retry.Completion[driversResponse](ctx, s.completer, &domain.CompletionRequest{
		Model:       s.cfg.StrongModel,
		Messages:    messages,
		Temperature: decomposeTemperature,
	}, s.policy())
	if err != nil {
		return nil, err
	}

	return resp.DriversList, nil
}

// QuestionToQueries derives search queries straight from the question.
// A cheap model is enough here.
func (s *Service) QuestionToQueries(ctx context.Context, question domain.QuestionMetadata) ([]string, error) {
	messages, err := s.renderer.Render(ctx, "question_to_queries", map[string]any{
		"question":            question.Question,
		"background":          question.Description,
		"resolution_criteria": question.ResolutionCriteria,
	})
	if err != nil {
		return nil, fmt.Errorf("render question_to_queries: %w", err)
	}

	resp, err := retry.Completion[queriesResponse](ctx, s.completer, &domain.CompletionRequest{
		Model:    s.cfg.CheapModel,
		Messages: messages,
	}, s.policy())
	if err != nil {
		return nil, err
	}

	return resp.SearchQueries, nil
}

// DriversToQueries derives additional queries targeting the decomposed
// drivers.
func (s *Service) DriversToQueries(ctx context.Context, question domain.QuestionMetadata, drivers []string) ([]string, error) {
	messages, err := s.renderer.Render(ctx, "drivers_to_queries", map[string]any{
		"question":            question.Question,
		"background":          question.Description,
		"resolution_criteria": question.ResolutionCriteria,
		"drivers":             strings.Join(drivers, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render drivers_to_queries: %w", err)
	}

	resp, err := retry.Completion[driverQueriesResponse](ctx, s.completer, &domain.CompletionRequest{
		Model:    s.cfg.CheapModel,
		Messages: messages,
	}, s.policy())
	if err != nil {
		return nil, err
	}

	return resp.SearchQueries, nil
}
