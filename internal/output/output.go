// Package output renders stream events as raw text, JSON, or XML.
package output

import (
	"fmt"
	"io"

	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

const (
	checkedMarker   = "[x] "
	uncheckedMarker = "[ ] "
	directorySuffix = "/"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	selectionSummaryFormat = "Summary: %d of %s selected"
	combineSummaryFormat   = "Summary: %d written, %d skipped, %d failed, %s"
)

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func treeNodeLabel(node *types.TreeOutputNode, isRoot bool) string {
	if node.Type == types.NodeTypeCycle {
		return node.Name
	}
	marker := uncheckedMarker
	if node.Checked {
		marker = checkedMarker
	}
	label := node.Name
	if isRoot {
		label = node.Path
	} else if node.Type == types.NodeTypeDirectory {
		label += directorySuffix
	}
	return marker + label
}

func renderTreeNode(writer io.Writer, node *types.TreeOutputNode, prefix string, isRoot bool, isLast bool) {
	if node == nil {
		return
	}
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	fmt.Fprintf(writer, "%s%s\n", linePrefix, treeNodeLabel(node, isRoot))
	for index, child := range node.Children {
		if child == nil {
			continue
		}
		renderTreeNode(writer, child, childPrefix, false, index == len(node.Children)-1)
	}
}

// WriteTreeRaw renders a checked tree with box-drawing connectors. With
// includeSummary the selected and total file counts follow the tree.
func WriteTreeRaw(writer io.Writer, node *types.TreeOutputNode, includeSummary bool) {
	if node == nil {
		return
	}
	renderTreeNode(writer, node, "", true, true)
	if includeSummary {
		fmt.Fprintln(writer, FormatSelectionSummary(node))
	}
}

// FormatSelectionSummary reports how many files of the tree are selected.
func FormatSelectionSummary(node *types.TreeOutputNode) string {
	if node == nil {
		node = &types.TreeOutputNode{}
	}
	return fmt.Sprintf(selectionSummaryFormat, node.CheckedFiles, utils.Pluralize(node.TotalFiles, "file"))
}

// FormatSummaryLine formats the outcome of a combine run.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.Model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	return fmt.Sprintf(combineSummaryFormat, summary.Written, summary.Skipped, summary.Failed, summary.TotalSize) + extra + modelSuffix
}
