package codemap

import (
	"strings"
	"testing"

	"codeatlas/internal/graph"
)

type charCounter struct{}

func (charCounter) Count(text string) int { return len(text) }

func node(id string, kind graph.NodeKind, name string) graph.Node {
	return graph.Node{ID: id, Kind: kind, Name: name}
}

func rel(source, target string, edgeType graph.EdgeType) graph.Relationship {
	return graph.Relationship{SourceID: source, TargetID: target, Type: edgeType}
}

// countLabels walks the tree and tallies every label underneath (and
// including) the root. A cycle would make this recursion never terminate, so
// any completed walk also demonstrates acyclicity.
func countLabels(tn *TreeNode, counts map[string]int) {
	counts[tn.Label]++
	for _, c := range tn.Children {
		countLabels(c, counts)
	}
}

func findChild(tn *TreeNode, label string) *TreeNode {
	for _, c := range tn.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

func TestBuildTree_EmptyInput(t *testing.T) {
	tree := BuildTree(graph.Traversal{}, nil)
	if tree.Root == nil {
		t.Fatal("Expected placeholder root, got nil")
	}
	if tree.Root.Label != "Root not found" {
		t.Errorf("Expected placeholder label, got '%s'", tree.Root.Label)
	}
	if tree.TotalTokens != 0 {
		t.Errorf("Expected zero tokens, got %d", tree.TotalTokens)
	}
}

func TestBuildTree_EveryNodeAppearsExactlyOnce(t *testing.T) {
	// Diamond plus a back edge: repo -> a, repo -> b, a -> shared,
	// b -> shared, shared -> a (cycle)
	repo := node("n0", graph.KindRepository, "repo")
	tr := graph.Traversal{
		Start: &repo,
		Nodes: []graph.Node{
			repo,
			node("n1", graph.KindFunction, "alpha"),
			node("n2", graph.KindFunction, "beta"),
			node("n3", graph.KindFunction, "shared"),
		},
		Relationships: []graph.Relationship{
			rel("n0", "n1", graph.EdgeContains),
			rel("n0", "n2", graph.EdgeContains),
			rel("n1", "n3", graph.EdgeCalls),
			rel("n2", "n3", graph.EdgeCalls),
			rel("n3", "n1", graph.EdgeCalls),
		},
	}

	tree := BuildTree(tr, nil)

	counts := make(map[string]int)
	countLabels(tree.Root, counts)
	if len(counts) != 4 {
		t.Fatalf("Expected 4 distinct labels, got %d: %v", len(counts), counts)
	}
	for label, n := range counts {
		if n != 1 {
			t.Errorf("Node '%s' placed %d times, expected exactly once", label, n)
		}
	}
}

func TestBuildTree_StartNodeIsRoot(t *testing.T) {
	start := node("n1", graph.KindFunction, "handler")
	tr := graph.Traversal{
		Start: &start,
		Nodes: []graph.Node{
			node("n0", graph.KindFile, "main.go"),
			start,
		},
		Relationships: []graph.Relationship{
			rel("n0", "n1", graph.EdgeContains),
		},
	}

	tree := BuildTree(tr, nil)
	if tree.Root.Label != "Function: handler" {
		t.Errorf("Expected start node as root, got '%s'", tree.Root.Label)
	}
	// The file is unreachable from the start and hangs off the root
	if findChild(tree.Root, "File: main.go") == nil {
		t.Error("Expected unreachable node attached to root")
	}
}

func TestBuildTree_OperandEdgeReversed(t *testing.T) {
	// OPERAND is stored operand -> owner; the owner is the tree parent
	tr := graph.Traversal{
		Nodes: []graph.Node{
			node("n1", graph.KindFunction, "method"),
			node("n2", graph.KindClass, "Owner"),
		},
		Relationships: []graph.Relationship{
			rel("n1", "n2", graph.EdgeOperand),
		},
	}

	tree := BuildTree(tr, nil)
	if tree.Root.Label != "Class: Owner" {
		t.Fatalf("Expected class as root, got '%s'", tree.Root.Label)
	}
	if findChild(tree.Root, "Function: method") == nil {
		t.Error("Expected method placed under its owning class")
	}
}

func TestBuildTree_TokenAnnotation(t *testing.T) {
	tr := graph.Traversal{
		Nodes: []graph.Node{
			{ID: "n0", Kind: graph.KindFunction, Name: "f", Body: "12345"},
			{ID: "n1", Kind: graph.KindFunction, Name: "g", Body: "123"},
		},
		Relationships: []graph.Relationship{
			rel("n0", "n1", graph.EdgeCalls),
		},
	}

	tree := BuildTree(tr, charCounter{})
	if tree.TotalTokens != 8 {
		t.Errorf("Expected total of 8, got %d", tree.TotalTokens)
	}
	if tree.Root.Label != "Function: f (5)" {
		t.Errorf("Expected annotated label, got '%s'", tree.Root.Label)
	}
}

func TestBuildTree_SiblingLabelCollision(t *testing.T) {
	// Two distinct functions with the same name under one parent keep
	// separate slots and get file-suffixed labels
	tr := graph.Traversal{
		Nodes: []graph.Node{
			node("n0", graph.KindFile, "routes.go"),
			{ID: "n1", Kind: graph.KindFunction, Name: "init", File: "a/setup.go"},
			{ID: "n2", Kind: graph.KindFunction, Name: "init", File: "b/setup.go"},
		},
		Relationships: []graph.Relationship{
			rel("n0", "n1", graph.EdgeContains),
			rel("n0", "n2", graph.EdgeContains),
		},
	}

	tree := BuildTree(tr, nil)
	if len(tree.Root.Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(tree.Root.Children))
	}
	seen := make(map[string]bool)
	for _, c := range tree.Root.Children {
		if !strings.HasPrefix(c.Label, "Function: init [") {
			t.Errorf("Expected disambiguated label, got '%s'", c.Label)
		}
		seen[c.Label] = true
	}
	if len(seen) != 2 {
		t.Errorf("Expected distinct labels after disambiguation, got %v", seen)
	}
}

func TestBuildTree_DeterministicOrder(t *testing.T) {
	tr := graph.Traversal{
		Nodes: []graph.Node{
			node("n0", graph.KindFile, "x.go"),
			node("n1", graph.KindFunction, "zeta"),
			node("n2", graph.KindFunction, "alpha"),
		},
		Relationships: []graph.Relationship{
			rel("n0", "n1", graph.EdgeContains),
			rel("n0", "n2", graph.EdgeContains),
		},
	}

	first := Render(BuildTree(tr, nil))
	for i := 0; i < 5; i++ {
		if got := Render(BuildTree(tr, nil)); got != first {
			t.Fatalf("Render differed across builds:\n%s\nvs\n%s", first, got)
		}
	}
	if !strings.Contains(first, "alpha") || strings.Index(first, "alpha") > strings.Index(first, "zeta") {
		t.Errorf("Expected children sorted by label:\n%s", first)
	}
}
