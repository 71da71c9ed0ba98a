package intelligence

import (
	"context"

	"codeatlas/internal/constants"
	"codeatlas/internal/graph"
)

// WeightedName is one extracted entity mention with its relevance to the answer
type WeightedName struct {
	Name      string  `json:"name"`
	Relevancy float64 `json:"relevancy"`
}

// HintExtraction is the structured output of the entity extraction call
type HintExtraction struct {
	FunctionNames  []WeightedName `json:"function_names"`
	FileNames      []WeightedName `json:"file_names"`
	DatamodelNames []WeightedName `json:"datamodel_names"`
	EndpointNames  []WeightedName `json:"endpoint_names"`
	PageNames      []WeightedName `json:"page_names"`
}

type extractedRef struct {
	kind graph.NodeKind
	name string
	// weight carried onto the REFERENCES edge
	relevancy float64
}

// extractReferences pulls concrete code entities out of an answer via the LLM
func (c *Cache) extractReferences(ctx context.Context, answer string) ([]extractedRef, error) {
	if len(answer) > constants.ExtractionMaxChars {
		answer = answer[:constants.ExtractionMaxChars]
	}

	var extraction HintExtraction
	if err := c.llm.CompleteJSON(ctx, extractionPrompt(answer), &extraction); err != nil {
		return nil, err
	}

	var refs []extractedRef
	appendKind := func(kind graph.NodeKind, names []WeightedName) {
		for _, n := range names {
			if n.Name == "" {
				continue
			}
			refs = append(refs, extractedRef{kind: kind, name: n.Name, relevancy: n.Relevancy})
		}
	}
	appendKind(graph.KindFunction, extraction.FunctionNames)
	appendKind(graph.KindFile, extraction.FileNames)
	appendKind(graph.KindDatamodel, extraction.DatamodelNames)
	appendKind(graph.KindEndpoint, extraction.EndpointNames)
	appendKind(graph.KindPage, extraction.PageNames)
	return refs, nil
}

// linkReferences resolves extracted names against the graph and writes
// weighted REFERENCES edges from the hint. Names that resolve to nothing are
// silently dropped; the extraction is noisy by nature.
func (c *Cache) linkReferences(ctx context.Context, hintRefID string, refs []extractedRef) (int, []string, error) {
	var weighted []graph.WeightedRef
	var linked []string
	seen := make(map[string]bool)

	for _, ref := range refs {
		nodes, err := c.store.FindByName(ctx, ref.name, ref.kind)
		if err != nil {
			return 0, nil, err
		}
		for _, node := range nodes {
			if node.RefID == "" || seen[node.RefID] {
				continue
			}
			seen[node.RefID] = true
			weighted = append(weighted, graph.WeightedRef{RefID: node.RefID, Relevancy: ref.relevancy})
			linked = append(linked, node.RefID)
		}
	}

	if len(weighted) == 0 {
		return 0, []string{}, nil
	}

	count, err := c.store.CreateHintEdges(ctx, hintRefID, weighted)
	if err != nil {
		return 0, nil, err
	}
	return count, linked, nil
}
