package codemap

import "strings"

// Render draws a tree as indented ASCII, one label per line. The layout is
// deterministic because BuildTree sorts children before rendering.
func Render(t *Tree) string {
	if t == nil || t.Root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.Root.Label)
	b.WriteString("\n")
	renderChildren(&b, t.Root.Children, "")
	return b.String()
}

func renderChildren(b *strings.Builder, children []*TreeNode, prefix string) {
	for i, c := range children {
		last := i == len(children)-1
		branch, childPrefix := "├─ ", prefix+"│  "
		if last {
			branch, childPrefix = "└─ ", prefix+"   "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(c.Label)
		b.WriteString("\n")
		renderChildren(b, c.Children, childPrefix)
	}
}
