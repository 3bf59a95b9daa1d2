// Package config loads treecat configuration files and the ignore patterns
// that filter the file tree.
package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tyemirov/treecat/internal/utils"
)

// gitDirectoryPattern represents the pattern that matches the Git directory.
const gitDirectoryPattern = utils.GitDirectoryName + "/"

// IgnoreOptions selects the pattern sources gathered by LoadIgnorePatterns.
type IgnoreOptions struct {
	Root          string
	Exclude       []string
	UseGitignore  bool
	UseIgnoreFile bool
}

// LoadIgnoreFilePatterns reads one ignore file. A missing file yields no patterns.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadIgnorePatterns walks options.Root and aggregates patterns from every
// utils.IgnoreFileName and utils.GitIgnoreFileName it is asked to honor.
// Patterns found in a nested directory are prefixed with that directory's path
// relative to the root. Using .gitignore also hides the .git directory.
// options.Exclude is appended last. With every source disabled the result is
// options.Exclude alone, so an unfiltered tree stays unfiltered.
func LoadIgnorePatterns(options IgnoreOptions) ([]string, error) {
	var aggregatedPatterns []string

	if options.UseGitignore || options.UseIgnoreFile {
		walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				if currentDirectoryPath != options.Root && os.IsPermission(walkError) {
					return filepath.SkipDir
				}
				return walkError
			}
			if !directoryEntry.IsDir() {
				return nil
			}
			if options.UseGitignore && directoryEntry.Name() == utils.GitDirectoryName {
				return filepath.SkipDir
			}

			relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, options.Root)
			prefix := ""
			if relativeDirectory != "." {
				prefix = relativeDirectory + "/"
			}

			var sources []string
			if options.UseIgnoreFile {
				sources = append(sources, utils.IgnoreFileName)
			}
			if options.UseGitignore {
				sources = append(sources, utils.GitIgnoreFileName)
			}
			for _, source := range sources {
				patterns, loadError := LoadIgnoreFilePatterns(filepath.Join(currentDirectoryPath, source))
				if loadError != nil {
					return fmt.Errorf("loading %s from %s: %w", source, currentDirectoryPath, loadError)
				}
				for _, pattern := range patterns {
					aggregatedPatterns = append(aggregatedPatterns, prefix+pattern)
				}
			}
			return nil
		}

		if walkError := filepath.WalkDir(options.Root, walkFunction); walkError != nil {
			return nil, walkError
		}
		if options.UseGitignore {
			aggregatedPatterns = append(aggregatedPatterns, gitDirectoryPattern)
		}
	}

	deduplicatedPatterns := utils.DeduplicatePatterns(aggregatedPatterns)
	for _, pattern := range options.Exclude {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(deduplicatedPatterns, trimmedPattern) {
			deduplicatedPatterns = append(deduplicatedPatterns, trimmedPattern)
		}
	}

	return deduplicatedPatterns, nil
}
