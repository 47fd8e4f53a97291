package toc

import (
	"stdpipe/utils/debug"
)

// Node is outline entry with its sub clauses.
type Node struct {
	Row
	Children []*Node
}

// Tree is a forest of top level clauses. Clauses whose parent is missing
// become roots.
type Tree []*Node

// NewTree links rows into hierarchy using parent ids.
func NewTree(rows []Row) Tree {
	var roots Tree
	nodes := make(map[string]*Node, len(rows))
	for _, row := range rows {
		node := &Node{Row: row}
		nodes[row.ClauseID] = node

		if parent, ok := nodes[row.ParentID]; ok && row.ParentID != RootParent {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

// String dumps outline for debugging.
func (t Tree) String() string {
	tw := debug.NewTreeWriter()
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			tw.Line(depth, "%s %s", n.ClauseID, n.ClauseText)
			walk(n.Children, depth+1)
		}
	}
	walk(t, 0)
	return tw.String()
}
