package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tyemirov/treecat/internal/utils"
)

type configTestCase struct {
	name          string
	globalContent string
	localContent  string
	explicitPath  string
	expectFormat  string
	expectOutput  string
	expectForce   *bool
	expectTokens  *bool
	expectModel   string
	expectExclude []string
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:          "local_overrides_global",
			globalContent: "combine:\n  format: raw\n  force: true\n  output: global.txt\npaths:\n  exclude: [vendor]\n",
			localContent:  "combine:\n  format: xml\n  force: false\n  tokens:\n    enabled: true\n    model: custom\n",
			expectFormat:  "xml",
			expectOutput:  "global.txt",
			expectForce:   boolPointer(false),
			expectTokens:  boolPointer(true),
			expectModel:   "custom",
			expectExclude: []string{"vendor"},
		},
		{
			name:          "explicit_path_replaces_local",
			globalContent: "combine:\n  format: json\n",
			localContent:  "combine:\n  format: xml\n",
			explicitPath:  "custom.yaml",
			expectFormat:  "raw",
		},
		{
			name:          "deduplicates_excludes",
			localContent:  "paths:\n  exclude: [dist, dist, node_modules]\n",
			expectExclude: []string{"dist", "node_modules"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.ConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				if err := os.WriteFile(target, []byte("combine:\n  format: raw\n"), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			combine := loadedConfig.Combine
			if combine.Format != testCase.expectFormat {
				t.Fatalf("expected format %q, got %q", testCase.expectFormat, combine.Format)
			}
			if combine.Output != testCase.expectOutput {
				t.Fatalf("expected output %q, got %q", testCase.expectOutput, combine.Output)
			}
			if testCase.expectForce == nil {
				if combine.Force != nil {
					t.Fatalf("expected no force override")
				}
			} else if combine.Force == nil || *combine.Force != *testCase.expectForce {
				t.Fatalf("unexpected force value")
			}
			if testCase.expectTokens == nil {
				if combine.Tokens.Enabled != nil {
					t.Fatalf("expected no tokens override")
				}
			} else if combine.Tokens.Enabled == nil || *combine.Tokens.Enabled != *testCase.expectTokens {
				t.Fatalf("unexpected tokens enabled value")
			}
			if combine.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, combine.Tokens.Model)
			}
			if len(loadedConfig.Paths.Exclude) != len(testCase.expectExclude) {
				t.Fatalf("expected excludes %v, got %v", testCase.expectExclude, loadedConfig.Paths.Exclude)
			}
			for index, pattern := range testCase.expectExclude {
				if loadedConfig.Paths.Exclude[index] != pattern {
					t.Fatalf("expected excludes %v, got %v", testCase.expectExclude, loadedConfig.Paths.Exclude)
				}
			}
		})
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	workingDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	if err := os.Mkdir(filepath.Join(workingDir, utils.ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir}); err == nil {
		t.Fatalf("expected error for a directory in place of the configuration file")
	}
}

func TestCombineMergeKeepsUnsetFields(t *testing.T) {
	base := CombineConfiguration{Atomic: boolPointer(true), Clipboard: boolPointer(true), Output: "base.txt"}
	merged := base.merge(CombineConfiguration{Clipboard: boolPointer(false)})
	if merged.Atomic == nil || !*merged.Atomic {
		t.Fatalf("expected atomic to survive the merge")
	}
	if merged.Clipboard == nil || *merged.Clipboard {
		t.Fatalf("expected clipboard override to apply")
	}
	if merged.Output != "base.txt" {
		t.Fatalf("expected output to survive the merge, got %q", merged.Output)
	}
}
