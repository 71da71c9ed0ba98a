package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// Hint Operations
// ============================================================================

// The hint store is append-only: hints are created with a fresh ref_id at
// write time and never updated or deleted. Racing near-duplicate questions
// may each mint a hint; that is accepted, not prevented.

// CreateHint persists a question/answer pair with its embedding and persona
// tag, returning the new durable ref id
func (r *Repository) CreateHint(ctx context.Context, question, answer string, embedding []float32, persona string) (string, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	if persona == "" {
		persona = "PM"
	}
	refID := uuid.New().String()

	query := `
		CREATE (h:Hint:` + IndexLabel + ` {
			ref_id: $refId,
			name: $question,
			question: $question,
			body: $answer,
			persona: $persona,
			embeddings: $embedding,
			created_at: datetime()
		})
		RETURN h.ref_id AS ref_id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"refId":     refID,
		"question":  question,
		"answer":    answer,
		"persona":   persona,
		"embedding": toFloat64Slice(embedding),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create hint: %w", err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return "", fmt.Errorf("failed to create hint: %w", err)
	}

	r.logger.Info("Hint created",
		zap.String("ref_id", refID),
		zap.String("persona", persona),
	)
	return refID, nil
}

// CreateHintEdges links a hint to the entities its answer references, one
// weighted REFERENCES edge per match. Returns the number of edges created.
func (r *Repository) CreateHintEdges(ctx context.Context, hintRefID string, refs []WeightedRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	weighted := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		if ref.RefID == "" {
			continue
		}
		weighted = append(weighted, map[string]interface{}{
			"ref_id":    ref.RefID,
			"relevancy": ref.Relevancy,
		})
	}
	if len(weighted) == 0 {
		return 0, nil
	}

	query := `
		MATCH (h:Hint {ref_id: $hintRefId})
		UNWIND $refs AS ref
		MATCH (target {ref_id: ref.ref_id})
		MERGE (h)-[e:REFERENCES]->(target)
		SET e.weight = ref.relevancy
		RETURN count(e) AS edges
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"hintRefId": hintRefID,
		"refs":      weighted,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create hint edges: %w", err)
	}

	edges := 0
	if result.Next(ctx) {
		edges = int(getFloat64FromRecord(result.Record(), "edges"))
	}
	if err := result.Err(); err != nil {
		return 0, fmt.Errorf("failed to create hint edges: %w", err)
	}

	r.logger.Info("Hint edges created",
		zap.String("hint_ref_id", hintRefID),
		zap.Int("edges", edges),
	)
	return edges, nil
}

// HintsWithoutSiblings returns hints with no persona variants yet. These are
// the originals the rephraser still has work to do for.
func (r *Repository) HintsWithoutSiblings(ctx context.Context) ([]Hint, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (h:Hint)
		WHERE NOT (h)-[:SIBLING]-()
		RETURN h
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list hints without siblings: %w", err)
	}

	var hints []Hint
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "h"); ok {
			hints = append(hints, hintFromDB(raw))
		}
	}
	return hints, result.Err()
}

// HintSiblings returns the persona variants linked to a hint
func (r *Repository) HintSiblings(ctx context.Context, refID string) ([]Hint, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (h:Hint {ref_id: $refId})-[:SIBLING]-(s:Hint)
		RETURN DISTINCT s
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"refId": refID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hint siblings: %w", err)
	}

	var hints []Hint
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "s"); ok {
			hints = append(hints, hintFromDB(raw))
		}
	}
	return hints, result.Err()
}

// CreateSiblingEdge links a hint to a persona variant of itself
func (r *Repository) CreateSiblingEdge(ctx context.Context, originalRefID, variantRefID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (a:Hint {ref_id: $original})
		MATCH (b:Hint {ref_id: $variant})
		MERGE (a)-[:SIBLING]->(b)
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"original": originalRefID,
		"variant":  variantRefID,
	})
	if err != nil {
		return fmt.Errorf("failed to create sibling edge: %w", err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("failed to create sibling edge: %w", err)
	}
	return nil
}
