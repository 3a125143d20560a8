package ast

import "strings"

// Dump renders the tree with one atom per line, indented two spaces per
// branch level below the root.
func Dump(root *Branch) string {
	var lines []string
	dumpBranch(root, 0, &lines)
	return strings.Join(lines, "\n")
}

func dumpBranch(b *Branch, depth int, lines *[]string) {
	if b == nil {
		return
	}
	for _, child := range b.Children {
		switch n := child.(type) {
		case *Branch:
			dumpBranch(n, depth+1, lines)
		case *Atom:
			*lines = append(*lines, strings.Repeat("  ", depth)+n.Token.Text)
		}
	}
}

// Depth returns the maximum branch nesting below node. A root holding only
// atoms has depth 0; each nested branch adds one.
func Depth(node Node) int {
	b, ok := node.(*Branch)
	if !ok {
		return 0
	}
	max := 0
	for _, child := range b.Children {
		if cb, ok := child.(*Branch); ok {
			if d := Depth(cb) + 1; d > max {
				max = d
			}
		}
	}
	return max
}

// Count returns the number of nodes in the tree, including node itself.
func Count(node Node) int {
	b, ok := node.(*Branch)
	if !ok {
		return 1
	}
	total := 1
	for _, child := range b.Children {
		total += Count(child)
	}
	return total
}
