package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/types"
)

// writeTestFile creates parent directories and writes content to root/relativePath.
func writeTestFile(t *testing.T, root string, relativePath string, content string) string {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	return fullPath
}

func buildTestTree(t *testing.T, root string) *commands.Tree {
	t.Helper()
	builder := &commands.TreeBuilder{}
	tree, err := builder.Build(root)
	require.NoError(t, err)
	return tree
}

func childNames(node *types.Node) []string {
	names := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		names = append(names, child.Name)
	}
	return names
}

func lookupNode(t *testing.T, tree *commands.Tree, relativePath string) *types.Node {
	t.Helper()
	node, found := tree.Lookup(relativePath)
	require.True(t, found, "node %s not found", relativePath)
	return node
}
