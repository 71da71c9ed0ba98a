package codemap

import (
	"fmt"
	"path"
	"sort"

	"codeatlas/internal/graph"
	"codeatlas/internal/tokens"
)

// TreeNode is one entry in a rendered code map: a display label plus ordered
// children. Ephemeral; lives only for the duration of one build.
type TreeNode struct {
	Label    string      `json:"label"`
	Children []*TreeNode `json:"nodes"`
}

// Tree is a built code map with its aggregate token count
type Tree struct {
	Root        *TreeNode `json:"root"`
	TotalTokens int       `json:"total_tokens"`
}

// structural edge types worth showing in a map, and which end is the parent.
// OPERAND is stored operand->owner, so the stored target is the tree parent.
var treeEdges = map[graph.EdgeType]bool{
	graph.EdgeCalls:    false,
	graph.EdgeContains: false,
	graph.EdgeRenders:  false,
	graph.EdgeHandler:  false,
	graph.EdgeOperand:  true, // reversed
}

// NodeLabel renders the display label for a graph node: kind, optional verb,
// name
func NodeLabel(n graph.Node) string {
	if n.Verb != "" {
		return fmt.Sprintf("%s: %s %s", n.Kind, n.Verb, n.Name)
	}
	return fmt.Sprintf("%s: %s", n.Kind, n.Name)
}

// BuildTree converts a traversal snapshot into a single rooted, cycle-free
// tree covering every input node exactly once. The root is the traversal's
// start node when present, otherwise the node with no incoming structural
// edge, otherwise the first node. Empty input yields a placeholder tree, not
// an error; callers render trees unconditionally.
//
// counter may be nil; labels then carry no token annotation.
func BuildTree(tr graph.Traversal, counter tokens.Counter) *Tree {
	if len(tr.Nodes) == 0 {
		return &Tree{Root: &TreeNode{Label: "Root not found"}}
	}

	byID := make(map[string]graph.Node, len(tr.Nodes))
	order := make([]string, 0, len(tr.Nodes))
	for _, n := range tr.Nodes {
		if _, ok := byID[n.ID]; ok {
			continue
		}
		byID[n.ID] = n
		order = append(order, n.ID)
	}

	totalTokens := 0
	labels := make(map[string]string, len(byID))
	treeNodes := make(map[string]*TreeNode, len(byID))
	for _, id := range order {
		n := byID[id]
		label := NodeLabel(n)
		if counter != nil && n.Body != "" {
			count := counter.Count(n.Body)
			totalTokens += count
			label = fmt.Sprintf("%s (%d)", label, count)
		}
		labels[id] = label
		treeNodes[id] = &TreeNode{Label: label}
	}

	// Adjacency restricted to structural edges, oriented parent -> child
	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	seenEdge := make(map[string]bool)
	for _, rel := range tr.Relationships {
		reversed, ok := treeEdges[rel.Type]
		if !ok {
			continue
		}
		parentID, childID := rel.SourceID, rel.TargetID
		if reversed {
			parentID, childID = rel.TargetID, rel.SourceID
		}
		if _, ok := byID[parentID]; !ok {
			continue
		}
		if _, ok := byID[childID]; !ok {
			continue
		}
		key := parentID + "->" + childID
		if seenEdge[key] {
			continue
		}
		seenEdge[key] = true
		children[parentID] = append(children[parentID], childID)
		hasParent[childID] = true
	}

	rootID := pickRoot(tr, order, hasParent)

	// Breadth-first placement. Each node is attached exactly once, the first
	// time it is reached; later edges to an already-placed node are dropped,
	// which is what keeps the result a tree.
	placed := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		parent := treeNodes[currentID]
		for _, childID := range children[currentID] {
			if childID == rootID || placed[childID] {
				continue
			}
			placed[childID] = true
			parent.Children = append(parent.Children, treeNodes[childID])
			queue = append(queue, childID)
		}
	}

	// Completeness pass: anything unreachable from the root (disconnected, or
	// only linked via non-structural edges) hangs off the root directly
	root := treeNodes[rootID]
	for _, id := range order {
		if !placed[id] {
			placed[id] = true
			root.Children = append(root.Children, treeNodes[id])
		}
	}

	disambiguateSiblings(root, treeNodes, byID)
	sortChildren(root)

	return &Tree{Root: root, TotalTokens: totalTokens}
}

func pickRoot(tr graph.Traversal, order []string, hasParent map[string]bool) string {
	if tr.Start != nil {
		for _, id := range order {
			if id == tr.Start.ID {
				return id
			}
		}
	}
	for _, id := range order {
		if !hasParent[id] {
			return id
		}
	}
	return order[0]
}

// disambiguateSiblings appends a file suffix to siblings that happen to
// render identical labels. Distinct entities stay distinct tree slots; the
// collision is purely a display concern.
func disambiguateSiblings(root *TreeNode, treeNodes map[string]*TreeNode, byID map[string]graph.Node) {
	fileByTree := make(map[*TreeNode]string, len(treeNodes))
	for id, tn := range treeNodes {
		fileByTree[tn] = byID[id].File
	}

	var walk func(*TreeNode)
	walk = func(tn *TreeNode) {
		counts := make(map[string]int)
		for _, c := range tn.Children {
			counts[c.Label]++
		}
		for _, c := range tn.Children {
			if counts[c.Label] > 1 && fileByTree[c] != "" {
				c.Label = fmt.Sprintf("%s [%s]", c.Label, path.Base(fileByTree[c]))
			}
		}
		for _, c := range tn.Children {
			walk(c)
		}
	}
	walk(root)
}

// sortChildren orders every node's children lexicographically by label so
// repeated builds render identically
func sortChildren(tn *TreeNode) {
	sort.SliceStable(tn.Children, func(i, j int) bool {
		return tn.Children[i].Label < tn.Children[j].Label
	})
	for _, c := range tn.Children {
		sortChildren(c)
	}
}
