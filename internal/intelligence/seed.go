package intelligence

import (
	"context"

	"go.uber.org/zap"
)

// seedQuestions cover the architectural ground most questions eventually
// touch, so a fresh graph starts with a usable hint base.
var seedQuestions = []string{
	"What is the overall architecture of this codebase?",
	"What are the main entry points and how does a request flow through the system?",
	"What data models exist and how do they relate to each other?",
	"What external services or APIs does this codebase integrate with?",
	"How is authentication and authorization handled?",
	"How is the frontend structured and which pages exist?",
	"What background jobs or asynchronous processing does the system run?",
	"How is the codebase tested and what do the tests cover?",
}

// Seed answers the canonical architecture questions through the cache,
// populating the hint base on a fresh graph. Questions that already have a
// close cached answer cost nothing extra. Returns the answers produced.
func (c *Cache) Seed(ctx context.Context, threshold float64) ([]Answer, error) {
	answers := make([]Answer, 0, len(seedQuestions))
	for _, question := range seedQuestions {
		if ctx.Err() != nil {
			return answers, ctx.Err()
		}
		ans, err := c.Ask(ctx, question, AskOptions{SimilarityThreshold: threshold})
		if err != nil {
			c.logger.Error("Seed question failed",
				zap.String("question", question), zap.Error(err))
			continue
		}
		answers = append(answers, *ans)
	}
	return answers, nil
}
