// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/config"
	"github.com/tyemirov/treecat/internal/output"
	"github.com/tyemirov/treecat/internal/services/clipboard"
	"github.com/tyemirov/treecat/internal/services/stream"
	"github.com/tyemirov/treecat/internal/tokenizer"
	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

const (
	excludeFlagName      = "exclude"
	excludeFlagShorthand = "e"
	gitignoreFlagName    = "gitignore"
	ignoreFileFlagName   = "ignore-file"
	noneFlagName         = "none"
	toggleFlagName       = "toggle"
	selectFlagName       = "select"
	deselectFlagName     = "deselect"
	formatFlagName       = "format"
	summaryFlagName      = "summary"
	outputFlagName       = "output"
	outputFlagShorthand  = "o"
	fullPathFlagName     = "full-path"
	forceFlagName        = "force"
	atomicFlagName       = "atomic"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	copyFlagName         = "copy"
	configFlagName       = "config"
	globalFlagName       = "global"
	versionFlagName      = "version"

	versionTemplate      = "treecat version: %s\n"
	defaultPath          = "."
	rootUse              = "treecat"
	rootShortDescription = "select files in a directory tree and combine them"
	rootLongDescription  = `treecat builds the file tree of a root directory, selects files with
cascading checkbox semantics, and concatenates the selected files into one
output where every body is preceded by a header naming its source.
Every file starts selected; use --none, --select, --deselect and --toggle to
change the selection.`

	treeUse                 = "tree [root]"
	listUse                 = "list [root]"
	combineUse              = "combine [root]"
	initUse                 = "init"
	treeAlias               = "t"
	listAlias               = "l"
	combineAlias            = "c"
	treeShortDescription    = "display the checked file tree (" + treeAlias + ")"
	listShortDescription    = "print the selected files in order (" + listAlias + ")"
	combineShortDescription = "write the selected files into one output (" + combineAlias + ")"
	initShortDescription    = "write a default " + utils.ConfigFileName

	treeUsageExample = `  # Show the tree with one directory unchecked
  treecat tree --toggle vendor .

  # Render the tree as XML
  treecat tree --format xml ./src`

	listUsageExample = `  # Start with nothing selected and pick two paths
  treecat list --none --select cmd --select go.mod`

	combineLongDescription = `Concatenate the selected files into one output. Each file is preceded by
"/ File: <name> **/" and a blank line. Files that cannot be read keep their
header and are reported; only a failure to write the output stops the run.
The output defaults to "` + utils.DefaultOutputFileName + `" inside the root and is never
overwritten without --force.`

	combineUsageExample = `  # Combine everything except tests, naming files by absolute path
  treecat combine --full-path -e '*_test.go' -o /tmp/bundle.txt .

  # Combine and copy the result to the clipboard
  treecat combine --force --copy`

	versionFlagDescription     = "display application version"
	configFlagDescription      = "path to a configuration file"
	excludeFlagDescription     = "exclude path pattern from the tree"
	gitignoreFlagDescription   = "hide entries matched by .gitignore files"
	ignoreFileFlagDescription  = "hide entries matched by .ignore files"
	noneFlagDescription        = "start with every file unchecked"
	toggleFlagDescription      = "toggle a path relative to the root (repeatable)"
	selectFlagDescription      = "check a path and everything under it (repeatable)"
	deselectFlagDescription    = "uncheck a path and everything under it (repeatable)"
	formatFlagDescription      = "output format: raw, json, or xml"
	summaryFlagDescription     = "include a summary line"
	outputFlagDescription      = "combined output file"
	fullPathFlagDescription    = "identify files by absolute path in headers"
	forceFlagDescription       = "replace an existing output file"
	atomicFlagDescription      = "write to a temporary file and rename it into place"
	tokensFlagDescription      = "count tokens of the combined bodies"
	modelFlagDescription       = "tokenizer model to use for token counting"
	copyFlagDescription        = "copy the combined output to the clipboard"
	globalFlagDescription      = "write the configuration under the home directory"
	initForceFlagDescription   = "overwrite an existing configuration file"
	defaultTokenizerModelName  = "gpt-4o"
	invalidFormatMessage       = "Invalid format value '%s'"
	clipboardCopiedMessage     = "Copied combined output to clipboard"
	configurationWrittenFormat = "Configuration written to %s\n"
	errorClipboardFormat       = "copy combined output to clipboard: %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorPathMissingFormat reports a missing path.
	errorPathMissingFormat = "path '%s' does not exist"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNoValidPaths indicates that all paths are invalid.
	errorNoValidPaths = "no valid paths"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

// application carries the collaborators shared by every command.
type application struct {
	logger            *zap.Logger
	stdout            io.Writer
	stderr            io.Writer
	copier            clipboard.Copier
	configurationPath string
	configuration     config.ApplicationConfiguration
}

// Execute runs the treecat application.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &application{
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
		copier: clipboard.NewService(),
	}
	rootCommand := app.createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(app.stdout, versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: app.configurationPath})
			if loadError != nil {
				return loadError
			}
			app.configuration = loaded
			return nil
		},
	}
	rootCommand.SetOut(app.stdout)
	rootCommand.SetErr(app.stderr)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configurationPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		app.createTreeCommand(),
		app.createListCommand(),
		app.createCombineCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// selectionFlags stores the flags shared by every command that builds a selection.
type selectionFlags struct {
	exclusionPatterns []string
	useGitignore      bool
	useIgnoreFile     bool
	none              bool
	toggles           []string
	selects           []string
	deselects         []string
}

// addSelectionFlags registers tree filtering and selection flags on the command.
func addSelectionFlags(command *cobra.Command, flags *selectionFlags) {
	command.Flags().StringArrayVarP(&flags.exclusionPatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.useIgnoreFile, ignoreFileFlagName, false, ignoreFileFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.none, noneFlagName, false, noneFlagDescription)
	command.Flags().StringArrayVar(&flags.toggles, toggleFlagName, nil, toggleFlagDescription)
	command.Flags().StringArrayVar(&flags.selects, selectFlagName, nil, selectFlagDescription)
	command.Flags().StringArrayVar(&flags.deselects, deselectFlagName, nil, deselectFlagDescription)
}

// selectionOptions resolves the root and merges flags over the loaded configuration.
func (app *application) selectionOptions(command *cobra.Command, arguments []string, flags selectionFlags) (stream.SelectionOptions, types.ValidatedPath, error) {
	if len(arguments) == 0 {
		arguments = []string{defaultPath}
	}
	validatedPaths, validationError := resolveAndValidatePaths(arguments)
	if validationError != nil {
		return stream.SelectionOptions{}, types.ValidatedPath{}, validationError
	}
	root := validatedPaths[0]

	paths := app.configuration.Paths
	useGitignore := flagOrConfiguration(command, gitignoreFlagName, flags.useGitignore, paths.UseGitignore)
	useIgnoreFile := flagOrConfiguration(command, ignoreFileFlagName, flags.useIgnoreFile, paths.UseIgnoreFile)
	exclusions := append(append([]string{}, paths.Exclude...), flags.exclusionPatterns...)

	var ignorePatterns []string
	if root.IsDir {
		patterns, loadError := config.LoadIgnorePatterns(config.IgnoreOptions{
			Root:          root.AbsolutePath,
			Exclude:       exclusions,
			UseGitignore:  useGitignore,
			UseIgnoreFile: useIgnoreFile,
		})
		if loadError != nil {
			return stream.SelectionOptions{}, types.ValidatedPath{}, loadError
		}
		ignorePatterns = patterns
	}

	return stream.SelectionOptions{
		Root:           root.AbsolutePath,
		IgnorePatterns: ignorePatterns,
		InitialChecked: !flags.none,
		Select:         flags.selects,
		Deselect:       flags.deselects,
		Toggles:        flags.toggles,
		Logger:         app.logger,
	}, root, nil
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	var selection selectionFlags
	var outputFormat string
	var summaryEnabled bool

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			options, _, optionsError := app.selectionOptions(command, arguments, selection)
			if optionsError != nil {
				return optionsError
			}
			format := stringFlagOrConfiguration(command, formatFlagName, outputFormat, app.configuration.Tree.Format)
			withSummary := flagOrConfiguration(command, summaryFlagName, summaryEnabled, app.configuration.Tree.Summary)
			producer := func(streamCtx context.Context, events chan<- stream.Event) error {
				return stream.StreamTree(streamCtx, options, events)
			}
			return app.render(command.Context(), types.CommandTree, format, withSummary, producer)
		},
	}

	addSelectionFlags(treeCommand, &selection)
	treeCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &summaryEnabled, summaryFlagName, true, summaryFlagDescription)
	return treeCommand
}

// createListCommand returns the list subcommand.
func (app *application) createListCommand() *cobra.Command {
	var selection selectionFlags
	var outputFormat string

	listCommand := &cobra.Command{
		Use:     listUse,
		Aliases: []string{listAlias},
		Short:   listShortDescription,
		Example: listUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			options, _, optionsError := app.selectionOptions(command, arguments, selection)
			if optionsError != nil {
				return optionsError
			}
			format := stringFlagOrConfiguration(command, formatFlagName, outputFormat, app.configuration.List.Format)
			producer := func(streamCtx context.Context, events chan<- stream.Event) error {
				return stream.StreamList(streamCtx, options, events)
			}
			return app.render(command.Context(), types.CommandList, format, false, producer)
		},
	}

	addSelectionFlags(listCommand, &selection)
	listCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	return listCommand
}

// combineFlags stores the flags of the combine command.
type combineFlags struct {
	outputFormat   string
	summaryEnabled bool
	outputPath     string
	fullPath       bool
	force          bool
	atomic         bool
	tokensEnabled  bool
	model          string
	copyEnabled    bool
}

// createCombineCommand returns the combine subcommand.
func (app *application) createCombineCommand() *cobra.Command {
	var selection selectionFlags
	var flags combineFlags

	combineCommand := &cobra.Command{
		Use:     combineUse,
		Aliases: []string{combineAlias},
		Short:   combineShortDescription,
		Long:    combineLongDescription,
		Example: combineUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runCombine(command, arguments, selection, flags)
		},
	}

	addSelectionFlags(combineCommand, &selection)
	combineCommand.Flags().StringVar(&flags.outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.summaryEnabled, summaryFlagName, true, summaryFlagDescription)
	combineCommand.Flags().StringVarP(&flags.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.fullPath, fullPathFlagName, false, fullPathFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.force, forceFlagName, false, forceFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.atomic, atomicFlagName, false, atomicFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	combineCommand.Flags().StringVar(&flags.model, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	registerBooleanFlag(combineCommand.Flags(), &flags.copyEnabled, copyFlagName, false, copyFlagDescription)
	return combineCommand
}

func (app *application) runCombine(command *cobra.Command, arguments []string, selection selectionFlags, flags combineFlags) error {
	selectionOptions, root, optionsError := app.selectionOptions(command, arguments, selection)
	if optionsError != nil {
		return optionsError
	}
	configuration := app.configuration.Combine

	format := stringFlagOrConfiguration(command, formatFlagName, flags.outputFormat, configuration.Format)
	withSummary := flagOrConfiguration(command, summaryFlagName, flags.summaryEnabled, configuration.Summary)
	outputPath := stringFlagOrConfiguration(command, outputFlagName, flags.outputPath, configuration.Output)
	if outputPath == "" {
		outputPath = defaultOutputPath(root)
	}

	combineOptions := commands.CombineOptions{
		HeaderMode: types.HeaderModeName,
		Atomic:     flagOrConfiguration(command, atomicFlagName, flags.atomic, configuration.Atomic),
	}
	if flagOrConfiguration(command, fullPathFlagName, flags.fullPath, configuration.FullPath) {
		combineOptions.HeaderMode = types.HeaderModePath
	}
	if flagOrConfiguration(command, tokensFlagName, flags.tokensEnabled, configuration.Tokens.Enabled) {
		model := stringFlagOrConfiguration(command, modelFlagName, flags.model, configuration.Tokens.Model)
		counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
		if counterError != nil {
			return counterError
		}
		combineOptions.TokenCounter = counter
		combineOptions.TokenModel = resolvedModel
	}

	streamOptions := stream.CombineStreamOptions{
		Selection:  selectionOptions,
		OutputPath: outputPath,
		Force:      flagOrConfiguration(command, forceFlagName, flags.force, configuration.Force),
		Combine:    combineOptions,
	}
	var outputWritten bool
	producer := func(streamCtx context.Context, events chan<- stream.Event) error {
		streamError := stream.StreamCombine(streamCtx, streamOptions, events)
		outputWritten = streamError == nil
		return streamError
	}
	if renderError := app.render(command.Context(), types.CommandCombine, format, withSummary, producer); renderError != nil {
		return renderError
	}

	copyEnabled := flagOrConfiguration(command, copyFlagName, flags.copyEnabled, configuration.Clipboard)
	if !copyEnabled || !outputWritten {
		return nil
	}
	return app.copyOutput(outputPath)
}

func (app *application) copyOutput(outputPath string) error {
	if app.copier == nil {
		return nil
	}
	data, readError := os.ReadFile(outputPath)
	if readError != nil {
		return fmt.Errorf(errorClipboardFormat, readError)
	}
	if copyError := app.copier.Copy(string(data)); copyError != nil {
		return fmt.Errorf(errorClipboardFormat, copyError)
	}
	fmt.Fprintln(app.stderr, clipboardCopiedMessage)
	return nil
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(app.stdout, configurationWrittenFormat, path)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, initForceFlagDescription)
	return initCommand
}

// render streams one producer into the renderer selected by format.
func (app *application) render(
	ctx context.Context,
	commandName string,
	format string,
	withSummary bool,
	produce func(context.Context, chan<- stream.Event) error,
) (err error) {
	format = strings.ToLower(format)
	if format == "" {
		format = types.FormatRaw
	}
	if !isSupportedFormat(format) {
		return fmt.Errorf(invalidFormatMessage, format)
	}

	var renderer output.StreamRenderer
	switch format {
	case types.FormatJSON:
		renderer = output.NewJSONStreamRenderer(app.stdout, app.stderr, commandName)
	case types.FormatXML:
		renderer = output.NewXMLStreamRenderer(app.stdout, app.stderr, commandName)
	default:
		renderer = output.NewRawStreamRenderer(app.stdout, app.stderr, commandName, withSummary, output.IsTerminal(app.stderr))
	}

	defer func() {
		if flushErr := renderer.Flush(); flushErr != nil && err == nil {
			err = flushErr
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	return dispatchStream(ctx, produce, renderer.Handle)
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	return group.Wait()
}

// defaultOutputPath places the combined file inside the root directory.
func defaultOutputPath(root types.ValidatedPath) string {
	directory := root.AbsolutePath
	if !root.IsDir {
		directory = filepath.Dir(directory)
	}
	return filepath.Join(directory, utils.DefaultOutputFileName)
}

// flagOrConfiguration prefers an explicitly set flag, then the configured value, then the flag default.
func flagOrConfiguration(command *cobra.Command, flagName string, flagValue bool, configured *bool) bool {
	if command != nil && command.Flags().Changed(flagName) {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return flagValue
}

func stringFlagOrConfiguration(command *cobra.Command, flagName string, flagValue string, configured string) string {
	if command != nil && command.Flags().Changed(flagName) {
		return flagValue
	}
	if configured != "" {
		return configured
	}
	return flagValue
}

// resolveAndValidatePaths converts input paths to absolute form and validates their existence.
func resolveAndValidatePaths(inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath, IsDir: info.IsDir()})
	}
	if len(result) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return result, nil
}
