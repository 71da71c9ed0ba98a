package graph

// ============================================================================
// Graph Types
// ============================================================================

// IndexLabel is the catch-all label shared by every indexed code entity.
// It exists for fulltext/vector index membership and is never a node's kind.
const IndexLabel = "Data_Bank"

// NodeKind is the closed set of code entity kinds. Neo4j label arrays are
// resolved to a NodeKind once at the repository boundary; nothing downstream
// re-sniffs labels.
type NodeKind string

const (
	KindRepository      NodeKind = "Repository"
	KindLanguage        NodeKind = "Language"
	KindDirectory       NodeKind = "Directory"
	KindFile            NodeKind = "File"
	KindImport          NodeKind = "Import"
	KindClass           NodeKind = "Class"
	KindLibrary         NodeKind = "Library"
	KindInstance        NodeKind = "Instance"
	KindFunction        NodeKind = "Function"
	KindTest            NodeKind = "Test"
	KindIntegrationTest NodeKind = "Integrationtest"
	KindE2eTest         NodeKind = "E2etest"
	KindEndpoint        NodeKind = "Endpoint"
	KindRequest         NodeKind = "Request"
	KindDatamodel       NodeKind = "Datamodel"
	KindArg             NodeKind = "Arg"
	KindModule          NodeKind = "Module"
	KindFeature         NodeKind = "Feature"
	KindPage            NodeKind = "Page"
	KindHint            NodeKind = "Hint"
	KindUnknown         NodeKind = ""
)

// IsTest reports whether the kind is a test entity (unit, integration or E2E)
func (k NodeKind) IsTest() bool {
	return k == KindTest || k == KindIntegrationTest || k == KindE2eTest
}

// KindFromLabels resolves a Neo4j label array to a NodeKind, skipping the
// generic index label
func KindFromLabels(labels []string) NodeKind {
	for _, l := range labels {
		if l != IndexLabel && l != "" {
			return NodeKind(l)
		}
	}
	return KindUnknown
}

// EdgeType is a typed, directed relationship between two nodes
type EdgeType string

const (
	EdgeCalls    EdgeType = "CALLS"
	EdgeUses     EdgeType = "USES"
	EdgeOperand  EdgeType = "OPERAND"
	EdgeArgOf    EdgeType = "ARG_OF"
	EdgeContains EdgeType = "CONTAINS"
	EdgeImports  EdgeType = "IMPORTS"
	EdgeOf       EdgeType = "OF"
	EdgeHandler  EdgeType = "HANDLER"
	EdgeRenders  EdgeType = "RENDERS"

	// EdgeReferences links a Hint to a code entity its answer mentions,
	// weighted 0.0-1.0 by relevancy
	EdgeReferences EdgeType = "REFERENCES"
	// EdgeSibling links persona variants of the same hint
	EdgeSibling EdgeType = "SIBLING"
)

// Node is a code entity fetched from the graph store. The numeric element id
// is stable within one query result only; RefID is the durable address.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	RefID string   `json:"ref_id"`
	Name  string   `json:"name"`
	File  string   `json:"file"`
	Body  string   `json:"body"`
	Start int      `json:"start"`
	End   int      `json:"end"`
	Verb  string   `json:"verb,omitempty"`
	Score float64  `json:"score,omitempty"`
}

// Relationship is a directed edge between two node element ids. Storage
// direction does not always equal traversal direction; tree building decides
// per edge type.
type Relationship struct {
	SourceID string   `json:"source"`
	TargetID string   `json:"target"`
	Type     EdgeType `json:"type"`
}

// Traversal is the canonical result shape of every traversal query. The
// repository normalizes whatever the query returns into this before it
// reaches any consumer.
type Traversal struct {
	Start         *Node          `json:"start,omitempty"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Hint is a persisted question/answer cache entry. Created once, never
// mutated.
type Hint struct {
	RefID     string    `json:"ref_id"`
	Question  string    `json:"question"`
	Body      string    `json:"body"`
	Persona   string    `json:"persona"`
	Embedding []float32 `json:"-"`
	Score     float64   `json:"score,omitempty"`
}

// WeightedRef pairs a durable node address with a relevancy weight
type WeightedRef struct {
	RefID     string  `json:"ref_id"`
	Relevancy float64 `json:"relevancy"`
}
