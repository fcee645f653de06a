// Package tsparse wraps tree-sitter-swift parsing and AST traversal.
//
// Adapted from the teacher's internal/parser: same sync.Pool-per-language
// pattern (trimmed to the single Swift grammar) and the same Walk/NodeText
// helpers.
package tsparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_swift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"
)

var (
	once       sync.Once
	language   *tree_sitter.Language
	parserPool *sync.Pool
)

func initLanguage() {
	once.Do(func() {
		language = tree_sitter.NewLanguage(tree_sitter_swift.Language())
		parserPool = &sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(language); err != nil {
					panic(fmt.Sprintf("set language: %v", err))
				}
				return p
			},
		}
	})
}

// Parse parses Swift source into a tree-sitter AST tree. The caller must
// call tree.Close() when done.
func Parse(source []byte) (*tree_sitter.Tree, error) {
	initLanguage()

	p, _ := parserPool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("failed to get swift parser")
	}
	tree := p.Parse(source, nil)
	parserPool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse failed")
	}
	return tree, nil
}

// WalkFunc is called for each node during AST traversal. Return false to
// skip the node's children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// SafeRowToLine converts a 0-based tree-sitter row to a 1-based source line,
// saturating rather than overflowing (teacher's safeRowToLine pattern).
func SafeRowToLine(row uint) int {
	const maxInt = int(^uint(0) >> 1)
	if row > uint(maxInt-1) {
		return maxInt
	}
	return int(row) + 1
}

// FindChildByKind returns the first direct child with the given kind.
func FindChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// FindDescendantByKind returns the first node in pre-order (including node
// itself) with the given kind.
func FindDescendantByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := FindDescendantByKind(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}
