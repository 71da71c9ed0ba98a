package intelligence

import (
	"context"

	"go.uber.org/zap"

	"codeatlas/internal/constants"
	"codeatlas/internal/explore"
	"codeatlas/internal/graph"
	"codeatlas/pkg/logger"
)

// HintStore is the slice of the graph repository the cache needs
type HintStore interface {
	VectorSearchHints(ctx context.Context, embedding []float32, scoreFloor float64, limit int) ([]graph.Hint, error)
	CreateHint(ctx context.Context, question, answer string, embedding []float32, persona string) (string, error)
	CreateHintEdges(ctx context.Context, hintRefID string, refs []graph.WeightedRef) (int, error)
	FindByName(ctx context.Context, name string, kind graph.NodeKind) ([]graph.Node, error)
	HintsWithoutSiblings(ctx context.Context) ([]graph.Hint, error)
	HintSiblings(ctx context.Context, refID string) ([]graph.Hint, error)
	CreateSiblingEdge(ctx context.Context, originalRefID, variantRefID string) error
}

// Embedder produces fixed-length embedding vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Explorer answers a question through graph exploration, optionally seeded
// with prior turns
type Explorer interface {
	Explore(ctx context.Context, question string, prior []explore.Turn) (string, error)
}

// LLM is the narrow completion surface the cache's secondary calls need
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteJSON(ctx context.Context, prompt string, out interface{}) error
}

// Answer is the result of one cache lookup
type Answer struct {
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	HintRefID      string   `json:"hint_ref_id"`
	Reused         bool     `json:"reused"`
	ReusedQuestion string   `json:"reused_question,omitempty"`
	EdgesAdded     int      `json:"edges_added"`
	LinkedRefIDs   []string `json:"linked_ref_ids"`
}

// AskOptions tunes one lookup
type AskOptions struct {
	// SimilarityThreshold is the floor for considering a cached hint at all
	SimilarityThreshold float64
	// Persona restricts candidates to a persona tag; empty accepts any
	Persona string
	// OriginalPrompt, when set, is the decomposition's original user intent.
	// Candidates are then additionally judged against it by an LLM filter,
	// because embedding similarity between a narrow sub-question and a cached
	// question is a weaker signal of actual usefulness.
	OriginalPrompt string
}

// Cache is the semantic answer cache: questions are answered once through
// expensive exploration, persisted with an embedding, and semantically
// similar future questions reuse, partially reuse, or skip that work.
//
// The cache is append-only. Nothing is invalidated or merged; racing
// near-duplicate questions may each mint their own hint.
type Cache struct {
	store    HintStore
	embedder Embedder
	explorer Explorer
	llm      LLM
	logger   *zap.Logger
}

// NewCache creates a semantic hint cache
func NewCache(store HintStore, embedder Embedder, explorer Explorer, llm LLM) *Cache {
	return &Cache{
		store:    store,
		embedder: embedder,
		explorer: explorer,
		llm:      llm,
		logger:   logger.Get(),
	}
}

// Ask answers a natural-language question about the codebase, reusing a
// cached answer when one is close enough.
//
// Decision ladder:
//   - best similarity above the high-confidence bar: stored answer verbatim,
//     no new hint
//   - a candidate above the caller's threshold: re-explore with the cached
//     pair as prior turns, persist the blended answer as a new hint
//   - nothing usable: full exploration from scratch
//
// On every path that explores, the new answer is persisted and then
// best-effort enriched with weighted edges to the entities it references.
func (c *Cache) Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	embedding, err := c.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	chosen, err := c.lookup(ctx, question, embedding, opts)
	if err != nil {
		return nil, err
	}

	if chosen != nil && chosen.Score > constants.HighConfidenceSimilarity {
		c.logger.Info("Hint reused directly",
			zap.String("ref_id", chosen.RefID),
			zap.Float64("score", chosen.Score),
		)
		return &Answer{
			Question:       question,
			Answer:         chosen.Body,
			HintRefID:      chosen.RefID,
			Reused:         true,
			ReusedQuestion: chosen.Question,
			EdgesAdded:     0,
			LinkedRefIDs:   []string{},
		}, nil
	}

	var prior []explore.Turn
	reused := false
	reusedQuestion := ""
	if chosen != nil {
		// Partial reuse: the cached pair becomes conversation history for a
		// fresh exploration of the new question
		prior = []explore.Turn{{Question: chosen.Question, Answer: chosen.Body}}
		reused = true
		reusedQuestion = chosen.Question
		c.logger.Info("Hint partially reused, re-exploring",
			zap.String("ref_id", chosen.RefID),
			zap.Float64("score", chosen.Score),
		)
	}

	answer, err := c.explorer.Explore(ctx, question, prior)
	if err != nil {
		return nil, err
	}

	refID, err := c.store.CreateHint(ctx, question, answer, embedding, opts.Persona)
	if err != nil {
		return nil, err
	}

	edgesAdded := 0
	linked := []string{}
	if refs, lerr := c.extractReferences(ctx, answer); lerr != nil {
		// Enrichment never blocks the answer
		c.logger.Error("Failed to extract hint references", zap.Error(lerr))
	} else {
		edgesAdded, linked, lerr = c.linkReferences(ctx, refID, refs)
		if lerr != nil {
			c.logger.Error("Failed to create hint edges", zap.Error(lerr))
			edgesAdded = 0
			linked = []string{}
		}
	}

	return &Answer{
		Question:       question,
		Answer:         answer,
		HintRefID:      refID,
		Reused:         reused,
		ReusedQuestion: reusedQuestion,
		EdgesAdded:     edgesAdded,
		LinkedRefIDs:   linked,
	}, nil
}

// lookup finds the candidate hint to base the decision on, or nil for a miss
func (c *Cache) lookup(ctx context.Context, question string, embedding []float32, opts AskOptions) (*graph.Hint, error) {
	candidates, err := c.store.VectorSearchHints(ctx, embedding, 0, constants.VectorSearchLimit)
	if err != nil {
		return nil, err
	}

	kept := make([]graph.Hint, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Score < opts.SimilarityThreshold {
			continue
		}
		if opts.Persona != "" && cand.Persona != opts.Persona {
			continue
		}
		kept = append(kept, cand)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	if opts.OriginalPrompt != "" {
		chosen := c.filterCandidates(ctx, kept, opts.OriginalPrompt)
		if chosen == nil {
			c.logger.Debug("Relevance filter rejected all candidates",
				zap.String("question", question),
			)
		}
		return chosen, nil
	}

	return &kept[0], nil
}
