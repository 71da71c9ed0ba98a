package codemap

import (
	"fmt"
	"sort"
	"strings"

	"codeatlas/internal/constants"
	"codeatlas/internal/graph"
)

// SnippetOptions controls snippet bundle assembly
type SnippetOptions struct {
	// AlwaysIncludeFiles are file paths shown whole regardless of size
	AlwaysIncludeFiles []string
	// IncludeTests keeps test entities in the bundle
	IncludeTests bool
}

// ExtractSnippets converts a set of graph nodes into an ordered, fenced text
// bundle of source snippets.
//
// Files touched by the input are shown either whole (body shorter than the
// size threshold, or listed in AlwaysIncludeFiles) or by their individual
// component nodes. A file whose components were all filtered away still
// appears once as a whole-file snippet; no touched file is silently dropped.
//
// Output is deterministic: identical input yields byte-identical output.
func ExtractSnippets(nodes []graph.Node, opts SnippetOptions) string {
	fileBodies := make(map[string]string)
	fileNodes := make(map[string]graph.Node)
	components := make(map[string]graph.Node)

	always := make(map[string]bool, len(opts.AlwaysIncludeFiles))
	for _, f := range opts.AlwaysIncludeFiles {
		always[f] = true
	}

	for _, n := range nodes {
		if n.File == "" {
			continue
		}
		if !opts.IncludeTests && n.Kind.IsTest() {
			continue
		}
		if n.Kind == graph.KindFile {
			fileBodies[n.File] = n.Body
			fileNodes[n.File] = n
			continue
		}
		key := fmt.Sprintf("%s:%s:%d", n.File, n.Name, n.Start)
		components[key] = n
	}

	// Decide whole-file vs component inclusion per touched file. The size
	// threshold is an exclusive upper bound for whole-file mode.
	wholeFiles := make(map[string]bool)
	componentFiles := make(map[string]bool)
	for file, body := range fileBodies {
		if always[file] || (len(body) > 0 && len(body) < constants.FileSizeThreshold) {
			wholeFiles[file] = true
		} else {
			componentFiles[file] = true
		}
	}

	final := make(map[string]graph.Node)

	for file := range wholeFiles {
		final[fileKey(file)] = fileNodes[file]
	}

	hasComponents := make(map[string]bool)
	for key, n := range components {
		if componentFiles[n.File] {
			final[key] = n
			hasComponents[n.File] = true
		} else if _, tracked := fileNodes[n.File]; !tracked {
			// Component in a file the input never delivered whole; keep it
			final[key] = n
		}
	}

	// Safety net: a file marked for components that ended up with none (only
	// referenced structurally, or its components were filtered) is shown
	// whole after all
	for file := range componentFiles {
		if !hasComponents[file] {
			final[fileKey(file)] = fileNodes[file]
		}
	}

	ordered := make([]graph.Node, 0, len(final))
	for _, n := range final {
		ordered = append(ordered, n)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		fi, fj := strings.ToLower(ordered[i].File), strings.ToLower(ordered[j].File)
		if fi != fj {
			return fi < fj
		}
		return ordered[i].Start < ordered[j].Start
	})

	blocks := make([]string, 0, len(ordered))
	for _, n := range ordered {
		if block := formatSnippet(n); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n")
}

func fileKey(file string) string {
	return fmt.Sprintf("%s:File:0", file)
}

func formatSnippet(n graph.Node) string {
	lines := []string{
		"<snippet>",
		fmt.Sprintf("name: %s", NodeLabel(n)),
		fmt.Sprintf("file: %s", fileOrDefault(n.File)),
		fmt.Sprintf("start: %d, end: %d", n.Start, n.End),
	}
	if n.Body != "" {
		lines = append(lines, "```\n"+n.Body+"\n```")
	}
	lines = append(lines, "</snippet>", "")
	return strings.Join(lines, "\n")
}

func fileOrDefault(file string) string {
	if file == "" {
		return "Not specified"
	}
	return file
}
