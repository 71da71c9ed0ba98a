package codemap

import (
	"strings"
	"testing"

	"codeatlas/internal/constants"
	"codeatlas/internal/graph"
)

func fileNode(file, body string) graph.Node {
	return graph.Node{ID: "f-" + file, Kind: graph.KindFile, Name: file, File: file, Body: body}
}

func funcNode(file, name, body string, start int) graph.Node {
	return graph.Node{ID: file + ":" + name, Kind: graph.KindFunction, Name: name, File: file, Body: body, Start: start}
}

func TestExtractSnippets_SmallFileShownWhole(t *testing.T) {
	nodes := []graph.Node{
		fileNode("pkg/small.go", "package small"),
		funcNode("pkg/small.go", "Helper", "func Helper() {}", 3),
	}

	out := ExtractSnippets(nodes, SnippetOptions{})
	if !strings.Contains(out, "package small") {
		t.Error("Expected whole-file body in output")
	}
	if strings.Contains(out, "func Helper") {
		t.Error("Expected component suppressed when file is shown whole")
	}
}

func TestExtractSnippets_ThresholdIsExclusive(t *testing.T) {
	atThreshold := strings.Repeat("x", constants.FileSizeThreshold)
	justUnder := strings.Repeat("y", constants.FileSizeThreshold-1)

	out := ExtractSnippets([]graph.Node{
		fileNode("big.go", atThreshold),
		funcNode("big.go", "BigFunc", "func BigFunc() {}", 10),
		fileNode("ok.go", justUnder),
		funcNode("ok.go", "OkFunc", "func OkFunc() {}", 10),
	}, SnippetOptions{})

	// At the threshold: component mode
	if strings.Contains(out, atThreshold) {
		t.Error("File at exactly the threshold should not be shown whole")
	}
	if !strings.Contains(out, "func BigFunc") {
		t.Error("Expected components of the at-threshold file")
	}
	// One byte under: whole-file mode
	if !strings.Contains(out, justUnder) {
		t.Error("File one byte under the threshold should be shown whole")
	}
	if strings.Contains(out, "func OkFunc") {
		t.Error("Expected component suppressed for the under-threshold file")
	}
}

func TestExtractSnippets_AlwaysIncludeOverridesSize(t *testing.T) {
	big := strings.Repeat("z", constants.FileSizeThreshold+100)
	out := ExtractSnippets([]graph.Node{
		fileNode("huge.go", big),
		funcNode("huge.go", "Inner", "func Inner() {}", 5),
	}, SnippetOptions{AlwaysIncludeFiles: []string{"huge.go"}})

	if !strings.Contains(out, big) {
		t.Error("Expected listed file shown whole regardless of size")
	}
}

func TestExtractSnippets_NoTouchedFileDropped(t *testing.T) {
	// A large file whose only component is a test: after filtering the file
	// would have zero surviving components, so it falls back to whole-file
	big := strings.Repeat("a", constants.FileSizeThreshold+1)
	out := ExtractSnippets([]graph.Node{
		fileNode("svc.go", big),
		{ID: "t1", Kind: graph.KindTest, Name: "TestSvc", File: "svc.go", Body: "func TestSvc() {}", Start: 1},
	}, SnippetOptions{})

	if !strings.Contains(out, "svc.go") {
		t.Error("Expected orphaned file to still appear")
	}
	if !strings.Contains(out, big) {
		t.Error("Expected orphaned file shown whole")
	}
	if strings.Contains(out, "TestSvc") {
		t.Error("Expected test component filtered out")
	}
}

func TestExtractSnippets_IncludeTests(t *testing.T) {
	nodes := []graph.Node{
		funcNode("a.go", "Real", "func Real() {}", 1),
		{ID: "t1", Kind: graph.KindIntegrationTest, Name: "TestReal", File: "a_test.go", Body: "func TestReal() {}", Start: 1},
	}

	without := ExtractSnippets(nodes, SnippetOptions{})
	if strings.Contains(without, "TestReal") {
		t.Error("Expected tests excluded by default")
	}

	with := ExtractSnippets(nodes, SnippetOptions{IncludeTests: true})
	if !strings.Contains(with, "TestReal") {
		t.Error("Expected tests included when requested")
	}
}

func TestExtractSnippets_UntrackedFileComponentsKept(t *testing.T) {
	// No File node delivered for this path; its components are kept as-is
	out := ExtractSnippets([]graph.Node{
		funcNode("lone.go", "Orphan", "func Orphan() {}", 7),
	}, SnippetOptions{})

	if !strings.Contains(out, "func Orphan") {
		t.Error("Expected component from untracked file in output")
	}
}

func TestExtractSnippets_DeterministicOrdering(t *testing.T) {
	nodes := []graph.Node{
		funcNode("Zed.go", "Last", "z", 5),
		funcNode("alpha.go", "Second", "b", 20),
		funcNode("alpha.go", "First", "a", 3),
	}

	first := ExtractSnippets(nodes, SnippetOptions{})
	for i := 0; i < 5; i++ {
		if got := ExtractSnippets(nodes, SnippetOptions{}); got != first {
			t.Fatal("Expected byte-identical output across runs")
		}
	}

	// Case-insensitive file order, then start offset within a file
	iFirst := strings.Index(first, "First")
	iSecond := strings.Index(first, "Second")
	iLast := strings.Index(first, "Last")
	if !(iFirst < iSecond && iSecond < iLast) {
		t.Errorf("Expected order First, Second, Last, got:\n%s", first)
	}
}

func TestExtractSnippets_SnippetFormat(t *testing.T) {
	out := ExtractSnippets([]graph.Node{
		{ID: "n1", Kind: graph.KindFunction, Name: "Greet", Verb: "GET", File: "api.go", Body: "func Greet() {}", Start: 4, End: 6},
	}, SnippetOptions{})

	for _, want := range []string{
		"<snippet>",
		"name: Function: GET Greet",
		"file: api.go",
		"start: 4, end: 6",
		"```\nfunc Greet() {}\n```",
		"</snippet>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
