package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/tyemirov/treecat/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// TestLoadIgnorePatternsNestedIgnore verifies that patterns from nested .ignore files are prefixed with their directory.
func TestLoadIgnorePatternsNestedIgnore(testingHandle *testing.T) {
	const (
		rootPatternName   = "root.txt"
		nestedPatternName = "nested.txt"
		nestedDirName     = "nested"
	)

	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.IgnoreFileName), "# comment\n"+rootPatternName+"\n\n")

	nestedDirectoryPath := filepath.Join(rootDirectory, nestedDirName)
	if makeDirErr := os.MkdirAll(nestedDirectoryPath, 0o755); makeDirErr != nil {
		testingHandle.Fatalf("failed to create nested directory: %v", makeDirErr)
	}
	writeTestFile(testingHandle, filepath.Join(nestedDirectoryPath, utils.IgnoreFileName), nestedPatternName+"\n")

	patternList, loadError := LoadIgnorePatterns(IgnoreOptions{Root: rootDirectory, UseIgnoreFile: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnorePatterns failed: %v", loadError)
	}

	sort.Strings(patternList)
	expectedPatterns := []string{rootPatternName, nestedDirName + "/" + nestedPatternName}
	sort.Strings(expectedPatterns)
	if !reflect.DeepEqual(patternList, expectedPatterns) {
		testingHandle.Fatalf("unexpected patterns: got %v want %v", patternList, expectedPatterns)
	}
}

// TestLoadIgnorePatternsGitignoreHidesGitDirectory verifies .gitignore handling and the implicit .git exclusion.
func TestLoadIgnorePatternsGitignoreHidesGitDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "build/\n")
	gitDirectory := filepath.Join(rootDirectory, utils.GitDirectoryName)
	if err := os.MkdirAll(gitDirectory, 0o755); err != nil {
		testingHandle.Fatalf("mkdir .git: %v", err)
	}
	writeTestFile(testingHandle, filepath.Join(gitDirectory, utils.GitIgnoreFileName), "never-read\n")

	patternList, loadError := LoadIgnorePatterns(IgnoreOptions{Root: rootDirectory, UseGitignore: true, Exclude: []string{" dist ", "build/"}})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnorePatterns failed: %v", loadError)
	}

	expectedPatterns := []string{"build/", gitDirectoryPattern, "dist"}
	if !reflect.DeepEqual(patternList, expectedPatterns) {
		testingHandle.Fatalf("unexpected patterns: got %v want %v", patternList, expectedPatterns)
	}
}

// TestLoadIgnorePatternsDisabledSources verifies that ignore files are not read unless requested.
func TestLoadIgnorePatternsDisabledSources(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.IgnoreFileName), "ignored.txt\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "ignored.txt\n")

	patternList, loadError := LoadIgnorePatterns(IgnoreOptions{Root: rootDirectory})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnorePatterns failed: %v", loadError)
	}
	if len(patternList) != 0 {
		testingHandle.Fatalf("expected no patterns, got %v", patternList)
	}
}

func TestLoadIgnoreFilePatternsMissingFile(testingHandle *testing.T) {
	patterns, err := LoadIgnoreFilePatterns(filepath.Join(testingHandle.TempDir(), "absent"))
	if err != nil || patterns != nil {
		testingHandle.Fatalf("expected no patterns and no error, got %v %v", patterns, err)
	}
}
