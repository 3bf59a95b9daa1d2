package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRootCommand() *cobra.Command {
	app := &application{logger: zap.NewNop()}
	return app.createRootCommand()
}

func findSubcommand(t *testing.T, rootCommand *cobra.Command, name string) *cobra.Command {
	t.Helper()
	subcommand, _, err := rootCommand.Find([]string{name})
	require.NoError(t, err)
	require.Equal(t, name, subcommand.Name())
	return subcommand
}

func TestNormalizeBooleanFlagArgumentsJoinsLiterals(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "force_followed_by_yes",
			arguments: []string{"combine", "--force", "yes", "."},
			expected:  []string{"combine", "--force=yes", "."},
		},
		{
			name:      "none_followed_by_no_keeps_root",
			arguments: []string{"list", "--none", "no", "src"},
			expected:  []string{"list", "--none=no", "src"},
		},
		{
			name:      "equals_form_untouched",
			arguments: []string{"combine", "--copy=off"},
			expected:  []string{"combine", "--copy=off"},
		},
		{
			name:      "non_literal_stays_positional",
			arguments: []string{"combine", "--tokens", "project"},
			expected:  []string{"combine", "--tokens", "project"},
		},
		{
			name:      "string_flag_untouched",
			arguments: []string{"combine", "--output", "yes"},
			expected:  []string{"combine", "--output", "yes"},
		},
		{
			name:      "arguments_after_terminator_untouched",
			arguments: []string{"tree", "--", "--gitignore", "off"},
			expected:  []string{"tree", "--", "--gitignore", "off"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.expected, normalizeBooleanFlagArguments(newTestRootCommand(), testCase.arguments))
		})
	}
}

func TestCombineBooleanFlagsParseLiterals(t *testing.T) {
	t.Parallel()

	rootCommand := newTestRootCommand()
	combineCommand := findSubcommand(t, rootCommand, "combine")
	arguments := normalizeBooleanFlagArguments(rootCommand, []string{"--force", "yes", "--copy=off", "--atomic", "--none", "no", "--full-path", "ON"})
	require.NoError(t, combineCommand.ParseFlags(arguments))

	expected := map[string]bool{
		forceFlagName:    true,
		copyFlagName:     false,
		atomicFlagName:   true,
		noneFlagName:     false,
		fullPathFlagName: true,
		tokensFlagName:   false,
	}
	for flagName, expectedValue := range expected {
		value, err := combineCommand.Flags().GetBool(flagName)
		require.NoError(t, err, flagName)
		assert.Equal(t, expectedValue, value, flagName)
	}
	assert.True(t, combineCommand.Flags().Changed(copyFlagName))
	assert.False(t, combineCommand.Flags().Changed(tokensFlagName))
	assert.Empty(t, combineCommand.Flags().Args())
}

func TestTreeSummaryFlagKeepsDefaultUntilSet(t *testing.T) {
	t.Parallel()

	rootCommand := newTestRootCommand()
	treeCommand := findSubcommand(t, rootCommand, "tree")
	summaryFlag := treeCommand.Flags().Lookup(summaryFlagName)
	require.NotNil(t, summaryFlag)
	assert.Equal(t, "true", summaryFlag.DefValue)

	require.NoError(t, treeCommand.ParseFlags(normalizeBooleanFlagArguments(rootCommand, []string{"--summary", "off", "docs"})))
	value, err := treeCommand.Flags().GetBool(summaryFlagName)
	require.NoError(t, err)
	assert.False(t, value)
	assert.Equal(t, []string{"docs"}, treeCommand.Flags().Args())
}

func TestBooleanFlagRejectsUnknownLiteral(t *testing.T) {
	t.Parallel()

	rootCommand := newTestRootCommand()
	combineCommand := findSubcommand(t, rootCommand, "combine")
	err := combineCommand.ParseFlags([]string{"--force=perhaps"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepted values")
	assert.Contains(t, err.Error(), "--force")
}

func TestParseBooleanLiteral(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input         string
		expectedValue bool
		expectedKnown bool
	}{
		{input: "", expectedValue: true, expectedKnown: true},
		{input: " Yes ", expectedValue: true, expectedKnown: true},
		{input: "OFF", expectedValue: false, expectedKnown: true},
		{input: "0", expectedValue: false, expectedKnown: true},
		{input: "maybe", expectedValue: false, expectedKnown: false},
	}
	for _, testCase := range testCases {
		value, known := parseBooleanLiteral(testCase.input)
		assert.Equal(t, testCase.expectedKnown, known, testCase.input)
		assert.Equal(t, testCase.expectedValue, value, testCase.input)
	}
}
