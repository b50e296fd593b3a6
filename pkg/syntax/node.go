// Package syntax parses the markup language into a tree of byte-ranged nodes.
package syntax

import "strings"

// Node is one element of the parse tree. Offsets are byte offsets into the
// parsed text; Start is inclusive and End exclusive.
type Node struct {
	Kind     Kind
	Start    int
	End      int
	Children []*Node

	// Text is the source text covered by the node.
	Text string

	// Value carries the semantic payload of leaves: identifier names,
	// unescaped strings, numeric literals, raw and equation bodies.
	Value string

	// Lang is the language tag of a raw block.
	Lang string

	// Message describes the problem for Error nodes.
	Message string
}

// Len returns the node length in bytes.
func (n *Node) Len() int {
	return n.End - n.Start
}

// Contains reports whether offset lies inside [Start, End].
func (n *Node) Contains(offset int) bool {
	return offset >= n.Start && offset <= n.End
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns the direct children of the given kind.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Callee returns the called name of a FuncCall, or "".
func (n *Node) Callee() string {
	if n.Kind != FuncCall {
		return ""
	}
	if ident := n.Child(Ident); ident != nil {
		return ident.Value
	}
	return ""
}

// IsCall reports whether n calls the function with the given name.
func (n *Node) IsCall(name string) bool {
	return n.Callee() == name
}

// HasNewline reports whether the node's text contains a line feed.
func (n *Node) HasNewline() bool {
	return strings.IndexByte(n.Text, '\n') >= 0
}

// Erroneous reports whether the subtree contains an error.
func (n *Node) Erroneous() bool {
	return FindFirst(n, func(c *Node) bool { return c.Kind == Error }) != nil
}

// Errors collects all error nodes in the subtree, in document order.
func (n *Node) Errors() []*Node {
	return FindAll(n, func(c *Node) bool { return c.Kind == Error })
}

// LeafAt returns the deepest node containing offset. When offset sits on a
// boundary, the node ending there wins if before is true.
func (n *Node) LeafAt(offset int, before bool) *Node {
	if !n.Contains(offset) {
		return nil
	}
	for _, c := range n.Children {
		if !c.Contains(offset) {
			continue
		}
		if c.End == offset && !before {
			continue
		}
		if leaf := c.LeafAt(offset, before); leaf != nil {
			return leaf
		}
	}
	return n
}

// IsDisplay reports whether an equation is set on its own line, which is the
// case when its body is padded with whitespace on both sides.
func (n *Node) IsDisplay() bool {
	if n.Kind != Equation || len(n.Value) < 2 {
		return false
	}
	isSpace := func(c byte) bool { return c == ' ' || c == '\n' || c == '\t' }
	return isSpace(n.Value[0]) && isSpace(n.Value[len(n.Value)-1])
}

// WalkFunc is the callback signature for Walk. Return false to skip the
// node's children.
type WalkFunc func(n *Node) bool

// Walk performs a pre-order traversal of the tree starting at root.
func Walk(root *Node, fn WalkFunc) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// FindAll returns all nodes matching the predicate in pre-order.
func FindAll(root *Node, predicate func(n *Node) bool) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if predicate(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindFirst returns the first node matching the predicate, or nil.
func FindFirst(root *Node, predicate func(n *Node) bool) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if predicate(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
