package graph

import (
	"context"
	"fmt"
)

// ============================================================================
// Search Operations
// ============================================================================

// BodyIndex is the fulltext index over entity bodies
const BodyIndex = "bodyIndex"

// FulltextSearch runs a fulltext query against entity bodies, optionally
// restricted to the given kinds
func (r *Repository) FulltextSearch(ctx context.Context, query string, kinds []NodeKind, limit int) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	if limit < 1 {
		limit = 10
	}

	cypher := `
		CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
		WITH node, score
		WHERE
		  CASE
		    WHEN $kinds IS NULL OR size($kinds) = 0 THEN true
		    ELSE ANY(label IN labels(node) WHERE label IN $kinds)
		  END
		RETURN node, score
		ORDER BY score DESC
		LIMIT toInteger($limit)
	`

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"index": BodyIndex,
		"query": query,
		"kinds": kindStrings(kinds),
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run fulltext search: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		record := result.Record()
		raw, ok := getNodeFromRecord(record, "node")
		if !ok {
			continue
		}
		node := nodeFromDB(raw)
		node.Score = getFloat64FromRecord(record, "score")
		nodes = append(nodes, node)
	}
	return nodes, result.Err()
}

// VectorSearch finds the nearest nodes to an embedding by cosine similarity,
// restricted to the given kinds and floored at scoreFloor
func (r *Repository) VectorSearch(ctx context.Context, kinds []NodeKind, embedding []float32, scoreFloor float64, limit int) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	if limit < 1 {
		limit = 5
	}

	cypher := `
		MATCH (node)
		WHERE
		  CASE
		    WHEN $kinds IS NULL OR size($kinds) = 0 THEN true
		    ELSE ANY(label IN labels(node) WHERE label IN $kinds)
		  END
		  AND node.embeddings IS NOT NULL
		WITH node, gds.similarity.cosine(node.embeddings, $embedding) AS score
		WHERE score >= $scoreFloor
		RETURN node, score
		ORDER BY score DESC
		LIMIT toInteger($limit)
	`

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"kinds":      kindStrings(kinds),
		"embedding":  toFloat64Slice(embedding),
		"scoreFloor": scoreFloor,
		"limit":      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		record := result.Record()
		raw, ok := getNodeFromRecord(record, "node")
		if !ok {
			continue
		}
		node := nodeFromDB(raw)
		node.Score = getFloat64FromRecord(record, "score")
		nodes = append(nodes, node)
	}
	return nodes, result.Err()
}

// VectorSearchHints is VectorSearch restricted to Hint nodes, returned with
// their question/answer payload
func (r *Repository) VectorSearchHints(ctx context.Context, embedding []float32, scoreFloor float64, limit int) ([]Hint, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	if limit < 1 {
		limit = 5
	}

	cypher := `
		MATCH (node:Hint)
		WHERE node.embeddings IS NOT NULL
		WITH node, gds.similarity.cosine(node.embeddings, $embedding) AS score
		WHERE score >= $scoreFloor
		RETURN node, score
		ORDER BY score DESC
		LIMIT toInteger($limit)
	`

	result, err := session.Run(ctx, cypher, map[string]interface{}{
		"embedding":  toFloat64Slice(embedding),
		"scoreFloor": scoreFloor,
		"limit":      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search hints: %w", err)
	}

	var hints []Hint
	for result.Next(ctx) {
		record := result.Record()
		raw, ok := getNodeFromRecord(record, "node")
		if !ok {
			continue
		}
		hint := hintFromDB(raw)
		hint.Score = getFloat64FromRecord(record, "score")
		hints = append(hints, hint)
	}
	return hints, result.Err()
}

func kindStrings(kinds []NodeKind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
