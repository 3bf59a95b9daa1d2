package commands

import "github.com/tyemirov/treecat/internal/types"

// Selection tracks the checked state of every node of one Tree. States are
// indexed by Node.ID; a node that was never set reads as unchecked.
//
// Toggling a node applies the new state to all of its descendants and then
// recomputes each ancestor: an ancestor is checked only when every direct
// child is checked. A partially selected directory therefore reads as
// unchecked, while its checked files still count as selected.
type Selection struct {
	tree    *Tree
	checked []bool
}

// NewSelection returns a selection over tree with every node set to initial.
func NewSelection(tree *Tree, initial bool) *Selection {
	selection := &Selection{
		tree:    tree,
		checked: make([]bool, tree.Len()),
	}
	if initial {
		selection.SetAll(true)
	}
	return selection
}

// Tree returns the tree the selection operates on.
func (selection *Selection) Tree() *Tree {
	return selection.tree
}

// IsChecked returns the stored state of node. Nodes outside the tree report false.
func (selection *Selection) IsChecked(node *types.Node) bool {
	if !selection.tree.Contains(node) {
		return false
	}
	return selection.checked[node.ID]
}

// Toggle flips node, cascades the new state to its descendants, and
// recomputes its ancestors. It returns the node's new state.
func (selection *Selection) Toggle(node *types.Node) bool {
	if !selection.tree.Contains(node) {
		return false
	}
	newState := !selection.checked[node.ID]
	selection.Set(node, newState)
	return newState
}

// Set assigns state to node and its descendants, then recomputes its ancestors.
func (selection *Selection) Set(node *types.Node, state bool) {
	if !selection.tree.Contains(node) {
		return
	}
	selection.setSubtree(node, state)
	selection.updateAncestors(node)
}

// SetAll assigns state to every node of the tree.
func (selection *Selection) SetAll(state bool) {
	for index := range selection.checked {
		selection.checked[index] = state
	}
}

// SelectedFiles returns the paths of checked file nodes in pre-order. The
// result is a snapshot; directories are descended regardless of their own state.
func (selection *Selection) SelectedFiles() []string {
	var selected []string
	selection.tree.Walk(func(node *types.Node) bool {
		if node.IsFile() && selection.checked[node.ID] {
			selected = append(selected, node.Path)
		}
		return true
	})
	return selected
}

// Counts returns the number of checked file nodes and the number of file nodes.
func (selection *Selection) Counts() (checkedFiles int, totalFiles int) {
	for _, node := range selection.tree.nodes {
		if !node.IsFile() {
			continue
		}
		totalFiles++
		if selection.checked[node.ID] {
			checkedFiles++
		}
	}
	return checkedFiles, totalFiles
}

func (selection *Selection) setSubtree(node *types.Node, state bool) {
	stack := []*types.Node{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		selection.checked[current.ID] = state
		stack = append(stack, current.Children...)
	}
}

func (selection *Selection) updateAncestors(node *types.Node) {
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		allChecked := true
		for _, child := range parent.Children {
			if !selection.checked[child.ID] {
				allChecked = false
				break
			}
		}
		selection.checked[parent.ID] = allChecked
	}
}
