package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// ============================================================================
// Helper Functions
// ============================================================================

// nodeFromDB normalizes a raw Neo4j node into the canonical Node shape.
// Label sniffing happens here and nowhere else.
func nodeFromDB(n dbtype.Node) Node {
	return Node{
		ID:    n.ElementId,
		Kind:  KindFromLabels(n.Labels),
		RefID: getStringProp(n.Props, "ref_id"),
		Name:  getStringProp(n.Props, "name"),
		File:  getStringProp(n.Props, "file"),
		Body:  getStringProp(n.Props, "body"),
		Start: getIntProp(n.Props, "start"),
		End:   getIntProp(n.Props, "end"),
		Verb:  getStringProp(n.Props, "verb"),
	}
}

func hintFromDB(n dbtype.Node) Hint {
	persona := getStringProp(n.Props, "persona")
	if persona == "" {
		persona = "PM"
	}
	return Hint{
		RefID:    getStringProp(n.Props, "ref_id"),
		Question: getStringProp(n.Props, "question"),
		Body:     getStringProp(n.Props, "body"),
		Persona:  persona,
	}
}

func getStringProp(props map[string]interface{}, key string) string {
	val, ok := props[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntProp(props map[string]interface{}, key string) int {
	val, ok := props[key]
	if !ok || val == nil {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getNodeFromRecord(record *neo4j.Record, key string) (dbtype.Node, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return dbtype.Node{}, false
	}
	n, ok := val.(dbtype.Node)
	return n, ok
}

func getNodeListFromRecord(record *neo4j.Record, key string) []dbtype.Node {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil
	}
	nodes := make([]dbtype.Node, 0, len(list))
	for _, item := range list {
		if n, ok := item.(dbtype.Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// relationshipsFromRecord reads the collected relationship maps produced by
// the traversal queries. Segments missing either endpoint are skipped; a
// partial traversal is preferred over a failed one.
func relationshipsFromRecord(record *neo4j.Record, key string) []Relationship {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil
	}
	rels := make([]Relationship, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		source := getStringProp(m, "source")
		target := getStringProp(m, "target")
		relType := getStringProp(m, "type")
		if source == "" || target == "" || relType == "" {
			continue
		}
		rels = append(rels, Relationship{
			SourceID: source,
			TargetID: target,
			Type:     EdgeType(relType),
		})
	}
	return rels
}

func toFloat64Slice(embedding []float32) []float64 {
	out := make([]float64, len(embedding))
	for i, v := range embedding {
		out[i] = float64(v)
	}
	return out
}
