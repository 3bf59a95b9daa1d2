package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

const (
	// warningAccessDeniedFormat is used when a directory listing cannot be read.
	warningAccessDeniedFormat = "Access denied to directory: %s (%v)"
	// warningCanonicalPathFormat is used when the canonical form of a directory cannot be resolved.
	warningCanonicalPathFormat = "Could not resolve canonical path for %s: %v"
	// warningCycleFormat is used when a directory is already on the traversal path.
	warningCycleFormat = "Cyclic reference skipped: %s"

	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorStatRootFormat is used when the root cannot be inspected.
	errorStatRootFormat = "inspecting root %s: %w"
)

// TreeBuilder builds checked file trees using configured options.
type TreeBuilder struct {
	IgnorePatterns []string
	Logger         *zap.Logger
	Warn           func(message string)
}

type treeBuildState struct {
	builder    *TreeBuilder
	rootPath   string
	logger     *zap.Logger
	inProgress map[string]struct{}
	nodes      []*types.Node
	warnings   []error
}

type directoryChild struct {
	path        string
	name        string
	isDirectory bool
}

// Build walks rootPath and returns its ordered, cycle-safe tree. Directories
// sort before files and names compare case-insensitively. Unreadable
// subdirectories become empty and are recorded in Tree.Warnings.
func (treeBuilder *TreeBuilder) Build(rootPath string) (*Tree, error) {
	absoluteRootPath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, rootPath, absolutePathError)
	}
	absoluteRootPath = filepath.Clean(absoluteRootPath)

	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return nil, fmt.Errorf(errorStatRootFormat, rootPath, rootStatError)
	}

	logger := treeBuilder.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	state := &treeBuildState{
		builder:    treeBuilder,
		rootPath:   absoluteRootPath,
		logger:     logger,
		inProgress: map[string]struct{}{},
	}
	state.buildNode(absoluteRootPath, displayName(absoluteRootPath), nil, rootInfo.IsDir())
	return newTree(absoluteRootPath, state.nodes, state.warnings), nil
}

func (state *treeBuildState) buildNode(path string, name string, parent *types.Node, isDirectory bool) *types.Node {
	node := state.appendNode(&types.Node{
		Path:        path,
		Name:        name,
		IsDirectory: isDirectory,
		Parent:      parent,
	})
	if !isDirectory {
		return node
	}

	canonicalPath, canonicalError := filepath.EvalSymlinks(path)
	if canonicalError != nil {
		state.warn(fmt.Sprintf(warningCanonicalPathFormat, path, canonicalError), path, canonicalError)
		canonicalPath = path
	}
	if _, onPath := state.inProgress[canonicalPath]; onPath {
		state.logger.Debug(fmt.Sprintf(warningCycleFormat, path))
		node.Children = []*types.Node{state.appendNode(&types.Node{
			Path:            path,
			Name:            types.CycleSentinelName,
			IsCycleSentinel: true,
			Parent:          node,
		})}
		return node
	}

	state.inProgress[canonicalPath] = struct{}{}
	defer delete(state.inProgress, canonicalPath)

	children, listError := state.listChildren(path)
	if listError != nil {
		accessError := &AccessError{Path: path, Err: listError}
		state.warnings = append(state.warnings, accessError)
		state.warn(fmt.Sprintf(warningAccessDeniedFormat, path, listError), path, listError)
		return node
	}

	for _, child := range children {
		node.Children = append(node.Children, state.buildNode(child.path, child.name, node, child.isDirectory))
	}
	return node
}

func (state *treeBuildState) appendNode(node *types.Node) *types.Node {
	node.ID = len(state.nodes)
	state.nodes = append(state.nodes, node)
	return node
}

// listChildren reads a directory and returns its entries ordered directories
// first, then case-insensitively by name. Symbolic links are classified by
// their target, so a link to a directory is expanded like a directory.
func (state *treeBuildState) listChildren(directoryPath string) ([]directoryChild, error) {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}

	children := make([]directoryChild, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		relativeChildPath := utils.RelativePathOrSelf(childPath, state.rootPath)
		if utils.ShouldIgnoreByPath(relativeChildPath, state.builder.IgnorePatterns) {
			continue
		}
		isDirectory := directoryEntry.IsDir()
		if directoryEntry.Type()&os.ModeSymlink != 0 {
			targetInfo, targetError := os.Stat(childPath)
			isDirectory = targetError == nil && targetInfo.IsDir()
		}
		children = append(children, directoryChild{path: childPath, name: directoryEntry.Name(), isDirectory: isDirectory})
	}

	sort.SliceStable(children, func(left, right int) bool {
		return lessDirectoryChild(children[left], children[right])
	})
	return children, nil
}

func lessDirectoryChild(left, right directoryChild) bool {
	if left.isDirectory != right.isDirectory {
		return left.isDirectory
	}
	leftFolded := strings.ToLower(left.name)
	rightFolded := strings.ToLower(right.name)
	if leftFolded != rightFolded {
		return leftFolded < rightFolded
	}
	return left.name < right.name
}

// warn forwards message to the Warn hook and always logs it with the path and cause.
func (state *treeBuildState) warn(message string, path string, cause error) {
	if state.builder.Warn != nil {
		state.builder.Warn(message)
	}
	state.logger.Warn(message, zap.String("path", path), zap.Error(cause))
}

func displayName(path string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return path
	}
	return name
}
