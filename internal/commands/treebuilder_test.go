package commands_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/types"
)

func TestBuildOrdersDirectoriesFirstCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "b.txt", "b")
	writeTestFile(t, root, "A.txt", "a")
	writeTestFile(t, root, "c.TXT", "c")
	writeTestFile(t, root, "zeta/inner.txt", "z")
	writeTestFile(t, root, "Alpha/inner.txt", "a")
	writeTestFile(t, root, "beta/inner.txt", "b")

	tree := buildTestTree(t, root)

	require.NotNil(t, tree.Root)
	assert.True(t, tree.Root.IsDirectory)
	assert.Equal(t, filepath.Base(root), tree.Root.Name)
	assert.Equal(t, []string{"Alpha", "beta", "zeta", "A.txt", "b.txt", "c.TXT"}, childNames(tree.Root))
}

func TestBuildLeavesAreExactlyRegularFiles(t *testing.T) {
	root := t.TempDir()
	expected := []string{
		writeTestFile(t, root, "one.txt", "1"),
		writeTestFile(t, root, "nested/two.txt", "2"),
		writeTestFile(t, root, "nested/deeper/three.txt", "3"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	tree := buildTestTree(t, root)

	var actual []string
	for _, node := range tree.Files() {
		actual = append(actual, node.Path)
	}
	sort.Strings(expected)
	sort.Strings(actual)
	assert.Equal(t, expected, actual)

	emptyDirectory := lookupNode(t, tree, "empty")
	assert.True(t, emptyDirectory.IsDirectory)
	assert.Empty(t, emptyDirectory.Children)
	assert.Empty(t, tree.Warnings)
}

func TestBuildAssignsPreOrderIDsAndParents(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "dir/a.txt", "a")
	writeTestFile(t, root, "z.txt", "z")

	tree := buildTestTree(t, root)

	var visited []int
	tree.Walk(func(node *types.Node) bool {
		visited = append(visited, node.ID)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3}, visited)
	assert.Equal(t, 4, tree.Len())

	fileNode := lookupNode(t, tree, "dir/a.txt")
	require.NotNil(t, fileNode.Parent)
	assert.Equal(t, "dir", fileNode.Parent.Name)
	assert.Equal(t, tree.Root, fileNode.Parent.Parent)
	assert.Nil(t, tree.Root.Parent)
	assert.Same(t, fileNode, tree.NodeByID(fileNode.ID))
}

func TestBuildFileRootIsLeaf(t *testing.T) {
	root := t.TempDir()
	filePath := writeTestFile(t, root, "single.txt", "content")

	tree := buildTestTree(t, filePath)

	assert.False(t, tree.Root.IsDirectory)
	assert.Empty(t, tree.Root.Children)
	assert.Equal(t, 1, tree.Len())
}

func TestBuildMissingRootFails(t *testing.T) {
	builder := &commands.TreeBuilder{}
	_, err := builder.Build(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestBuildInsertsSentinelForSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "loop/file.txt", "x")
	if err := os.Symlink(filepath.Join(root, "loop"), filepath.Join(root, "loop", "back")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tree := buildTestTree(t, root)

	backNode := lookupNode(t, tree, "loop/back")
	require.True(t, backNode.IsDirectory)
	require.Len(t, backNode.Children, 1)
	sentinel := backNode.Children[0]
	assert.True(t, sentinel.IsCycleSentinel)
	assert.Equal(t, types.CycleSentinelName, sentinel.Name)
	assert.Empty(t, sentinel.Children)
	assert.False(t, sentinel.IsFile())

	sentinelCount := 0
	tree.Walk(func(node *types.Node) bool {
		if node.IsCycleSentinel {
			sentinelCount++
		}
		return true
	})
	assert.Equal(t, 1, sentinelCount)
}

func TestBuildExpandsSiblingSymlinkToDirectory(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "real/file.txt", "x")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tree := buildTestTree(t, root)

	aliasNode := lookupNode(t, tree, "alias")
	assert.True(t, aliasNode.IsDirectory)
	assert.Equal(t, []string{"file.txt"}, childNames(aliasNode))
}

func TestBuildRecordsAccessErrorAndContinues(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeTestFile(t, root, "locked/secret.txt", "s")
	writeTestFile(t, root, "open.txt", "o")
	lockedPath := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(lockedPath, 0o000))
	t.Cleanup(func() { _ = os.Chmod(lockedPath, 0o755) })

	var warnings []string
	core, logs := observer.New(zapcore.WarnLevel)
	builder := &commands.TreeBuilder{
		Logger: zap.New(core),
		Warn:   func(message string) { warnings = append(warnings, message) },
	}
	tree, err := builder.Build(root)
	require.NoError(t, err)

	lockedNode := lookupNode(t, tree, "locked")
	assert.Empty(t, lockedNode.Children)
	require.Len(t, tree.Warnings, 1)
	var accessError *commands.AccessError
	require.ErrorAs(t, tree.Warnings[0], &accessError)
	assert.Equal(t, lockedPath, accessError.Path)
	assert.Len(t, warnings, 1)
	lookupNode(t, tree, "open.txt")

	entries := logs.FilterField(zap.String("path", lockedPath)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, warnings[0], entries[0].Message)
}

func TestBuildHonorsIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "keep.go", "k")
	writeTestFile(t, root, "drop.log", "d")
	writeTestFile(t, root, "vendor/lib.go", "v")

	builder := &commands.TreeBuilder{IgnorePatterns: []string{"*.log", "vendor/"}}
	tree, err := builder.Build(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.go"}, childNames(tree.Root))
}
