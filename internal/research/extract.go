package research

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/davidbz/foresight/internal/domain"
	"github.com/davidbz/foresight/internal/retry"
	"github.com/davidbz/foresight/internal/runner"
)

type sectionResponse struct {
	ParagraphSummary    string `json:"paragraph_summary"`
	Score               int    `json:"score"`
	ExtractionReasoning string `json:"extraction_reasoning"`
	ExtractedGold       string `json:"extracted_gold"`
}

type filterResponse struct {
	Reasoning    string `json:"reasoning"`
	FilteredGold string `json:"filtered_gold"`
}

type sectionExtract struct {
	index int
	text  string
}

// ExtractSections pulls driver-relevant text out of every section of a
// candidate document, joins it in document order, and runs the configured
// number of filter cycles over the joined text with the strong model.
func (s *Service) ExtractSections(ctx context.Context, candidateID string, drivers []string) (domain.Extract, error) {
	sections, err := s.source.Sections(ctx, candidateID)
	if err != nil {
		return domain.Extract{}, fmt.Errorf("fetch sections for %s: %w", candidateID, err)
	}

	if s.cfg.MaxSections > 0 && len(sections) > s.cfg.MaxSections {
		sections = sections[:s.cfg.MaxSections]
	}

	indexed := make([]sectionExtract, 0, len(sections))
	for i, text := range sections {
		indexed = append(indexed, sectionExtract{index: i, text: text})
	}

	extracted := runner.Run(ctx, indexed, s.cfg.MaxWorkers, nil,
		func(ctx context.Context, section sectionExtract) (sectionExtract, error) {
			gold, err := s.extractSection(ctx, section.text, drivers)
			if err != nil {
				return sectionExtract{}, err
			}
			return sectionExtract{index: section.index, text: gold}, nil
		})

	// Runner returns completion order; restore document order before joining.
	sort.Slice(extracted, func(i, j int) bool { return extracted[i].index < extracted[j].index })

	parts := make([]string, 0, len(extracted))
	for _, e := range extracted {
		if t := strings.TrimSpace(e.text); t != "" {
			parts = append(parts, t)
		}
	}
	full := strings.Join(parts, " ")

	for i := 0; i < s.cfg.FilterCycles; i++ {
		full, err = s.filterExtraction(ctx, full, drivers)
		if err != nil {
			return domain.Extract{}, err
		}
	}

	return domain.Extract{
		PageName:    candidateID,
		PageSummary: strings.TrimSpace(full),
	}, nil
}

// extractSection asks the cheap model for the driver-relevant text of one
// section.
func (s *Service) extractSection(ctx context.Context, section string, drivers []string) (string, error) {
	messages, err := s.renderer.Render(ctx, "section_extract", map[string]any{
		"article": section,
		"drivers": strings.Join(drivers, ", "),
	})
	if err != nil {
		return "", fmt.Errorf("render section_extract: %w", err)
	}

	resp, err := retry.Completion[sectionResponse](ctx, s.completer, &domain.CompletionRequest{
		Model:    s.cfg.CheapModel,
		Messages: messages,
	}, s.policy())
	if err != nil {
		return "", err
	}

	return resp.ExtractedGold, nil
}

// filterExtraction removes text unrelated to the drivers from a joined
// extraction. Empty extractions short-circuit: there is nothing to filter.
func (s *Service) filterExtraction(ctx context.Context, extraction string, drivers []string) (string, error) {
	if strings.TrimSpace(extraction) == "" {
		return strings.TrimSpace(extraction), nil
	}

	messages, err := s.renderer.Render(ctx, "extraction_filter", map[string]any{
		"extracted_gold": extraction,
		"drivers":        strings.Join(drivers, ", "),
	})
	if err != nil {
		return "", fmt.Errorf("render extraction_filter: %w", err)
	}

	resp, err := retry.Completion[filterResponse](ctx, s.completer, &domain.CompletionRequest{
		Model:    s.cfg.StrongModel,
		Messages: messages,
	}, s.policy())
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.FilteredGold), nil
}
