package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Traversal Operations
// ============================================================================

// Direction selects which way a path expansion walks structural edges
type Direction string

const (
	DirectionDown Direction = "down"
	DirectionUp   Direction = "up"
)

// relationshipFilter builds the apoc expansion filter. OPERAND is walked
// against its stored direction: an operand is consumed by its owner, so the
// owner is the structural parent.
func relationshipFilter(direction Direction) string {
	if direction == DirectionUp {
		return "<RENDERS|<CALLS|<CONTAINS|<HANDLER|OPERAND>"
	}
	return "RENDERS>|CALLS>|CONTAINS>|HANDLER>|<OPERAND"
}

// ExpandOptions identifies a start node and bounds a path expansion.
// RefID takes precedence over Kind+Name when both are set.
type ExpandOptions struct {
	Kind        NodeKind
	Name        string
	RefID       string
	Direction   Direction
	Depth       int
	LabelFilter string
}

// PathExpand runs a bounded structural traversal from a start entity and
// returns the canonical {start, nodes, relationships} snapshot.
func (r *Repository) PathExpand(ctx context.Context, opts ExpandOptions) (Traversal, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	if opts.Depth < 1 {
		opts.Depth = 1
	}
	if opts.Direction == "" {
		opts.Direction = DirectionDown
	}

	query := `
		OPTIONAL MATCH (byName {name: $name})
		WHERE $name <> '' AND any(label IN labels(byName) WHERE label = $kind)

		OPTIONAL MATCH (byRef {ref_id: $refId})
		WHERE $refId <> ''

		WITH CASE WHEN byRef IS NOT NULL THEN byRef ELSE byName END AS start
		WHERE start IS NOT NULL

		CALL apoc.path.expandConfig(start, {
			relationshipFilter: $relationshipFilter,
			uniqueness: "NODE_PATH",
			minLevel: 1,
			maxLevel: $depth,
			labelFilter: $labelFilter
		})
		YIELD path

		WITH start,
		     COLLECT(DISTINCT path) AS paths

		UNWIND paths AS path
		UNWIND relationships(path) AS rel
		WITH start, paths,
		     COLLECT(DISTINCT {
		        source: elementId(startNode(rel)),
		        target: elementId(endNode(rel)),
		        type: type(rel)
		     }) AS rels

		UNWIND paths AS path
		UNWIND nodes(path) AS node
		RETURN start AS startNode,
		       COLLECT(DISTINCT node) AS allNodes,
		       rels AS relationships
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name":               opts.Name,
		"kind":               string(opts.Kind),
		"refId":              opts.RefID,
		"depth":              opts.Depth,
		"labelFilter":        opts.LabelFilter,
		"relationshipFilter": relationshipFilter(opts.Direction),
	})
	if err != nil {
		return Traversal{}, fmt.Errorf("failed to expand path: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return Traversal{}, fmt.Errorf("failed to fetch expansion record: %w", err)
		}
		// Unresolvable start node: empty traversal, callers render it as-is
		return Traversal{}, nil
	}

	return traversalFromRecord(result.Record()), nil
}

func traversalFromRecord(record *neo4j.Record) Traversal {
	tr := Traversal{}

	if raw, ok := getNodeFromRecord(record, "startNode"); ok {
		start := nodeFromDB(raw)
		tr.Start = &start
	}

	seen := make(map[string]bool)
	if tr.Start != nil {
		seen[tr.Start.ID] = true
		tr.Nodes = append(tr.Nodes, *tr.Start)
	}
	for _, raw := range getNodeListFromRecord(record, "allNodes") {
		node := nodeFromDB(raw)
		if seen[node.ID] {
			continue
		}
		seen[node.ID] = true
		tr.Nodes = append(tr.Nodes, node)
	}

	tr.Relationships = relationshipsFromRecord(record, "relationships")
	return tr
}

// FindByName looks up nodes by exact name and kind
func (r *Repository) FindByName(ctx context.Context, name string, kind NodeKind) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE n.name = $name AND any(label IN labels(n) WHERE label = $kind)
		RETURN n
		LIMIT 25
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name": name,
		"kind": string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find nodes by name: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "n"); ok {
			nodes = append(nodes, nodeFromDB(raw))
		}
	}
	return nodes, result.Err()
}

// NodesByType returns every node of the given kind
func (r *Repository) NodesByType(ctx context.Context, kind NodeKind) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE any(label IN labels(n) WHERE label = $kind)
		RETURN n
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"kind": string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes by type: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "n"); ok {
			nodes = append(nodes, nodeFromDB(raw))
		}
	}
	return nodes, result.Err()
}

// NodesByRefIDs resolves durable ref ids back to nodes
func (r *Repository) NodesByRefIDs(ctx context.Context, refIDs []string) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE n.ref_id IN $refIds
		RETURN n
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"refIds": refIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nodes by ref ids: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "n"); ok {
			nodes = append(nodes, nodeFromDB(raw))
		}
	}
	return nodes, result.Err()
}

// FileMap returns a file node and the entities it directly contains, as a
// traversal rooted at the file. Used by the explorer's file_summary tool.
func (r *Repository) FileMap(ctx context.Context, filePath string) (Traversal, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (f:File {file: $file})
		OPTIONAL MATCH (f)-[rel:CONTAINS]->(child)
		WITH f,
		     COLLECT(DISTINCT child) AS children,
		     COLLECT(DISTINCT {
		        source: elementId(f),
		        target: elementId(child),
		        type: type(rel)
		     }) AS rels
		RETURN f AS startNode, children AS allNodes, rels AS relationships
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"file": filePath,
	})
	if err != nil {
		return Traversal{}, fmt.Errorf("failed to fetch file map: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return Traversal{}, fmt.Errorf("failed to fetch file record: %w", err)
		}
		return Traversal{}, nil
	}

	return traversalFromRecord(result.Record()), nil
}

// ImportsForFiles returns the Import nodes contained by the given files.
// Snippet extraction appends these so import sections ride along with the
// components that reference them.
func (r *Repository) ImportsForFiles(ctx context.Context, files []string) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (file:File)-[:CONTAINS]->(import:Import)
		WHERE file.file IN $files
		RETURN DISTINCT import AS n
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"files": files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch imports: %w", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if raw, ok := getNodeFromRecord(result.Record(), "n"); ok {
			nodes = append(nodes, nodeFromDB(raw))
		}
	}
	return nodes, result.Err()
}
