// Package types defines every cross‑package data structure used by the treecat CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
	NodeTypeCycle     = "cycle"

	CommandTree    = "tree"
	CommandList    = "list"
	CommandCombine = "combine"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"

	// CycleSentinelName names the placeholder child inserted for a directory
	// that is already on the current traversal path.
	CycleSentinelName = "... (cyclic reference skipped)"
)

// HeaderMode selects how a source file is identified in its combined header.
type HeaderMode string

const (
	// HeaderModeName identifies files by their bare file name.
	HeaderModeName HeaderMode = "name"
	// HeaderModePath identifies files by their absolute path.
	HeaderModePath HeaderMode = "path"
)

// Node is one filesystem entry within a built tree.
// ID is the node's pre-order position and keys every per-node index.
type Node struct {
	ID              int
	Path            string
	Name            string
	IsDirectory     bool
	IsCycleSentinel bool
	Parent          *Node
	Children        []*Node
}

// IsFile reports whether the node is a file leaf eligible for combination.
func (node *Node) IsFile() bool {
	return node != nil && !node.IsDirectory && !node.IsCycleSentinel
}

// Type returns the node type label used by renderers.
func (node *Node) Type() string {
	switch {
	case node.IsCycleSentinel:
		return NodeTypeCycle
	case node.IsDirectory:
		return NodeTypeDirectory
	default:
		return NodeTypeFile
	}
}

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// TreeOutputNode represents a node of a checked directory tree returned by the tree command.
type TreeOutputNode struct {
	XMLName      xml.Name          `json:"-" xml:"node"`
	Path         string            `json:"path" xml:"path"`
	Name         string            `json:"name" xml:"name"`
	Type         string            `json:"type" xml:"type"`
	Checked      bool              `json:"checked" xml:"checked"`
	Size         string            `json:"size,omitempty" xml:"size,omitempty"`
	SizeBytes    int64             `json:"-" xml:"-"`
	LastModified string            `json:"lastModified,omitempty" xml:"lastModified,omitempty"`
	Children     []*TreeOutputNode `json:"children,omitempty" xml:"children>node,omitempty"`
	TotalFiles   int               `json:"totalFiles,omitempty" xml:"totalFiles,omitempty"`
	CheckedFiles int               `json:"checkedFiles,omitempty" xml:"checkedFiles,omitempty"`
}

// OutputSummary captures aggregate information about a combine run.
type OutputSummary struct {
	Written     int    `json:"written" xml:"written"`
	Skipped     int    `json:"skipped" xml:"skipped"`
	Failed      int    `json:"failed" xml:"failed"`
	TotalSize   string `json:"totalSize" xml:"totalSize"`
	TotalTokens int    `json:"totalTokens,omitempty" xml:"totalTokens,omitempty"`
	Model       string `json:"model,omitempty" xml:"model,omitempty"`
}
