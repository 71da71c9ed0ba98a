package intelligence

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"codeatlas/internal/constants"
	"codeatlas/internal/graph"
)

// filterCandidates asks the LLM which cached question, if any, actually
// serves the original user intent. Any failure or ambiguity resolves to nil,
// falling back to exploration rather than risking a wrong reuse.
func (c *Cache) filterCandidates(ctx context.Context, candidates []graph.Hint, originalPrompt string) *graph.Hint {
	questions := make([]string, len(candidates))
	for i, cand := range candidates {
		questions[i] = cand.Question
	}

	raw, err := c.llm.Complete(ctx, relevanceFilterPrompt(originalPrompt, questions))
	if err != nil {
		c.logger.Warn("Relevance filter call failed, treating as miss", zap.Error(err))
		return nil
	}

	choice := strings.Trim(strings.TrimSpace(raw), `"`)
	if choice == "" || strings.EqualFold(choice, constants.NoMatch) {
		return nil
	}

	// The model must echo a candidate question back verbatim. Anything else,
	// including a paraphrase, counts as no match.
	for i := range candidates {
		if strings.EqualFold(strings.TrimSpace(candidates[i].Question), choice) {
			return &candidates[i]
		}
	}
	c.logger.Warn("Relevance filter returned an unknown question, treating as miss",
		zap.String("choice", choice),
	)
	return nil
}
