package commands

import (
	"os"

	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

// BuildTreeOutput projects the selection's tree into renderable nodes that
// carry each node's checked state. Directory nodes aggregate the number of
// files below them and how many of those are checked.
func BuildTreeOutput(selection *Selection) *types.TreeOutputNode {
	if selection == nil || selection.tree == nil || selection.tree.Root == nil {
		return nil
	}
	return selection.outputNode(selection.tree.Root)
}

func (selection *Selection) outputNode(node *types.Node) *types.TreeOutputNode {
	outputNode := &types.TreeOutputNode{
		Path:    node.Path,
		Name:    node.Name,
		Type:    node.Type(),
		Checked: selection.checked[node.ID],
	}
	if node.IsCycleSentinel {
		return outputNode
	}

	if info, statError := os.Stat(node.Path); statError == nil {
		outputNode.LastModified = utils.FormatTimestamp(info.ModTime())
		if node.IsFile() {
			outputNode.SizeBytes = info.Size()
			outputNode.Size = utils.FormatFileSize(info.Size())
		}
	}
	if node.IsFile() {
		return outputNode
	}

	for _, child := range node.Children {
		childOutput := selection.outputNode(child)
		outputNode.Children = append(outputNode.Children, childOutput)
		switch {
		case child.IsFile():
			outputNode.TotalFiles++
			outputNode.SizeBytes += childOutput.SizeBytes
			if childOutput.Checked {
				outputNode.CheckedFiles++
			}
		case child.IsDirectory:
			outputNode.TotalFiles += childOutput.TotalFiles
			outputNode.CheckedFiles += childOutput.CheckedFiles
			outputNode.SizeBytes += childOutput.SizeBytes
		}
	}
	outputNode.Size = utils.FormatFileSize(outputNode.SizeBytes)
	return outputNode
}
