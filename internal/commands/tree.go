// Package commands contains the core logic behind each treecat command:
// building the checked file tree, tracking the selection, and combining
// the selected files into one output.
package commands

import (
	"path/filepath"

	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

// Tree is the snapshot of a root directory produced by TreeBuilder.Build.
// It is replaced wholesale on refresh and never mutated afterwards.
type Tree struct {
	Root     *types.Node
	RootPath string
	Warnings []error

	nodes  []*types.Node
	byPath map[string]*types.Node
}

func newTree(rootPath string, nodes []*types.Node, warnings []error) *Tree {
	tree := &Tree{
		RootPath: rootPath,
		Warnings: warnings,
		nodes:    nodes,
		byPath:   make(map[string]*types.Node, len(nodes)),
	}
	if len(nodes) > 0 {
		tree.Root = nodes[0]
	}
	for _, node := range nodes {
		if node.IsCycleSentinel {
			continue
		}
		tree.byPath[node.Path] = node
	}
	return tree
}

// Len returns the number of nodes in the tree, sentinels included.
func (tree *Tree) Len() int {
	if tree == nil {
		return 0
	}
	return len(tree.nodes)
}

// NodeByID returns the node with the given pre-order ID or nil.
func (tree *Tree) NodeByID(id int) *types.Node {
	if tree == nil || id < 0 || id >= len(tree.nodes) {
		return nil
	}
	return tree.nodes[id]
}

// Contains reports whether node belongs to this tree.
func (tree *Tree) Contains(node *types.Node) bool {
	return node != nil && tree.NodeByID(node.ID) == node
}

// Lookup finds a node by absolute path or by a path relative to the tree root.
func (tree *Tree) Lookup(path string) (*types.Node, bool) {
	if tree == nil {
		return nil, false
	}
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(tree.RootPath, filepath.FromSlash(candidate))
	}
	node, found := tree.byPath[filepath.Clean(candidate)]
	return node, found
}

// Walk visits every node depth-first in pre-order until visit returns false.
func (tree *Tree) Walk(visit func(node *types.Node) bool) {
	if tree == nil || tree.Root == nil {
		return
	}
	stack := []*types.Node{tree.Root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(current) {
			return
		}
		for index := len(current.Children) - 1; index >= 0; index-- {
			stack = append(stack, current.Children[index])
		}
	}
}

// Files returns every file node in pre-order.
func (tree *Tree) Files() []*types.Node {
	var files []*types.Node
	tree.Walk(func(node *types.Node) bool {
		if node.IsFile() {
			files = append(files, node)
		}
		return true
	})
	return files
}

// RelativePath returns path relative to the tree root in slash form.
func (tree *Tree) RelativePath(path string) string {
	if tree == nil || path == "" {
		return ""
	}
	return utils.RelativePathOrSelf(path, tree.RootPath)
}
