package intelligence

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Decomposition is the structured breakdown of a change request
type Decomposition struct {
	Tasks     []string `json:"tasks"`
	Questions []string `json:"questions"`
}

// DecomposedAnswer pairs the breakdown with the answers to its questions
type DecomposedAnswer struct {
	Tasks   []string `json:"tasks"`
	Answers []Answer `json:"answers"`
}

// DecomposeAndAsk breaks a change request into implementation tasks and
// codebase questions, then answers every question concurrently through the
// cache. The original prompt rides along on each lookup so the relevance
// filter judges candidates against the real user intent, not just the
// sub-question.
func (c *Cache) DecomposeAndAsk(ctx context.Context, prompt string, threshold float64) (*DecomposedAnswer, error) {
	var dec Decomposition
	if err := c.llm.CompleteJSON(ctx, decomposePrompt(prompt), &dec); err != nil {
		return nil, err
	}

	answers := make([]Answer, len(dec.Questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, question := range dec.Questions {
		i, question := i, question
		g.Go(func() error {
			ans, err := c.Ask(gctx, question, AskOptions{
				SimilarityThreshold: threshold,
				OriginalPrompt:      prompt,
			})
			if err != nil {
				return err
			}
			answers[i] = *ans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DecomposedAnswer{Tasks: dec.Tasks, Answers: answers}, nil
}
