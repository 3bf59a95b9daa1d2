package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

var (
	// ErrNoFilesSelected is returned when a combine run has nothing to write.
	ErrNoFilesSelected = errors.New("no files selected; select at least one file to combine")
	// ErrOutputExists is returned when the destination exists and overwriting was not requested.
	ErrOutputExists = errors.New("output file already exists; use --force to replace it")
)

const (
	errorUnknownTogglePathFormat = "selection path %q is not part of the tree rooted at %s"
	warningOutputSelectedFormat  = "Excluding the output file from its own input: %s"
	statusSavingFormat           = "Saving combined file to: %s"
	statusLoadedFormat           = "Folder loaded: %s (%s selected of %d)"
)

// SelectionOptions describes how the tree is built and which toggles are applied.
type SelectionOptions struct {
	Root           string
	IgnorePatterns []string
	// InitialChecked is the state every node starts with before toggles apply.
	InitialChecked bool
	// Select and Deselect are applied before Toggles, each in order.
	Select   []string
	Deselect []string
	// Toggles are root-relative or absolute paths toggled in order.
	Toggles []string
	Logger  *zap.Logger
}

// CombineStreamOptions configures StreamCombine.
type CombineStreamOptions struct {
	Selection  SelectionOptions
	OutputPath string
	Force      bool
	Combine    commands.CombineOptions
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return fmt.Errorf("stream: event channel is nil")
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) warn(path, message string) {
	trimmed := strings.TrimRight(message, "\n")
	if trimmed == "" {
		return
	}
	_ = e.send(Event{
		Kind:    EventKindWarning,
		Path:    path,
		Message: &LogEvent{Level: "warning", Message: trimmed},
	})
}

func (e *emitter) status(path string, level commands.StatusLevel, message string) {
	_ = e.send(Event{
		Kind:   EventKindStatus,
		Path:   path,
		Status: &StatusEvent{Level: string(level), Message: message},
	})
}

func (e *emitter) fail(path string, err error) error {
	_ = e.send(Event{Kind: EventKindError, Path: path, Err: &ErrorEvent{Message: err.Error()}})
	return err
}

// BuildSelection builds the tree under opts.Root, starts every node at
// opts.InitialChecked, and applies opts.Toggles in order. Access warnings go
// to warn when it is set.
func BuildSelection(opts SelectionOptions, warn func(string)) (*commands.Selection, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("stream: root path is empty")
	}
	builder := &commands.TreeBuilder{
		IgnorePatterns: opts.IgnorePatterns,
		Logger:         opts.Logger,
		Warn:           warn,
	}
	tree, buildError := builder.Build(opts.Root)
	if buildError != nil {
		return nil, buildError
	}
	selection := commands.NewSelection(tree, opts.InitialChecked)
	apply := func(paths []string, change func(*types.Node)) error {
		for _, path := range paths {
			node, found := tree.Lookup(strings.TrimSuffix(path, "/"))
			if !found {
				return fmt.Errorf(errorUnknownTogglePathFormat, path, tree.RootPath)
			}
			change(node)
		}
		return nil
	}
	if err := apply(opts.Select, func(node *types.Node) { selection.Set(node, true) }); err != nil {
		return nil, err
	}
	if err := apply(opts.Deselect, func(node *types.Node) { selection.Set(node, false) }); err != nil {
		return nil, err
	}
	if err := apply(opts.Toggles, func(node *types.Node) { selection.Toggle(node) }); err != nil {
		return nil, err
	}
	return selection, nil
}

// StreamTree emits the checked tree for opts.Root.
func StreamTree(ctx context.Context, opts SelectionOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandTree)
	if err := emitter.send(Event{Kind: EventKindStart, Path: opts.Root}); err != nil {
		return err
	}
	selection, selectionError := BuildSelection(opts, func(message string) { emitter.warn(opts.Root, message) })
	if selectionError != nil {
		return emitter.fail(opts.Root, selectionError)
	}
	tree := selection.Tree()
	if err := emitter.send(Event{Kind: EventKindTree, Path: tree.RootPath, Tree: commands.BuildTreeOutput(selection)}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, Path: tree.RootPath})
}

// StreamList emits one file event per selected file in selection order.
func StreamList(ctx context.Context, opts SelectionOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandList)
	if err := emitter.send(Event{Kind: EventKindStart, Path: opts.Root}); err != nil {
		return err
	}
	selection, selectionError := BuildSelection(opts, func(message string) { emitter.warn(opts.Root, message) })
	if selectionError != nil {
		return emitter.fail(opts.Root, selectionError)
	}
	tree := selection.Tree()
	for index, selectedPath := range selection.SelectedFiles() {
		if err := emitter.send(Event{
			Kind: EventKindFile,
			Path: selectedPath,
			File: &FileEvent{
				Path:         selectedPath,
				RelativePath: tree.RelativePath(selectedPath),
				Index:        index,
			},
		}); err != nil {
			return err
		}
	}
	return emitter.send(Event{Kind: EventKindDone, Path: tree.RootPath})
}

// StreamCombine builds the selection and writes the selected files into
// opts.OutputPath, forwarding progress lines as status events and finishing
// with a report event. An empty selection or an existing destination without
// Force is refused before the output is touched.
func StreamCombine(ctx context.Context, opts CombineStreamOptions, out chan<- Event) error {
	emitter := newEmitter(ctx, out, types.CommandCombine)
	if err := emitter.send(Event{Kind: EventKindStart, Path: opts.Selection.Root}); err != nil {
		return err
	}
	selection, selectionError := BuildSelection(opts.Selection, func(message string) { emitter.warn(opts.Selection.Root, message) })
	if selectionError != nil {
		return emitter.fail(opts.Selection.Root, selectionError)
	}
	tree := selection.Tree()
	checkedFiles, totalFiles := selection.Counts()
	emitter.status(tree.RootPath, commands.StatusInfo, fmt.Sprintf(statusLoadedFormat, tree.RootPath, utils.Pluralize(checkedFiles, "file"), totalFiles))

	outputPath, resolveError := filepath.Abs(opts.OutputPath)
	if resolveError != nil {
		return emitter.fail(opts.OutputPath, resolveError)
	}
	selectedFiles := excludePath(selection.SelectedFiles(), outputPath, func(path string) {
		emitter.warn(path, fmt.Sprintf(warningOutputSelectedFormat, path))
	})
	if len(selectedFiles) == 0 {
		return emitter.fail(tree.RootPath, ErrNoFilesSelected)
	}
	if !opts.Force {
		if _, statError := os.Stat(outputPath); statError == nil {
			return emitter.fail(outputPath, fmt.Errorf("%w: %s", ErrOutputExists, outputPath))
		}
	}

	combineOptions := opts.Combine
	combineOptions.Observer = func(status commands.Status) {
		emitter.status(status.Path, status.Level, status.Message)
		if opts.Combine.Observer != nil {
			opts.Combine.Observer(status)
		}
	}
	emitter.status(outputPath, commands.StatusInfo, fmt.Sprintf(statusSavingFormat, outputPath))

	combiner := commands.NewCombiner(combineOptions, opts.Selection.Logger)
	report, combineError := combiner.Combine(ctx, selectedFiles, outputPath)
	if combineError != nil {
		return emitter.fail(outputPath, combineError)
	}
	if err := emitter.send(Event{Kind: EventKindReport, Path: outputPath, Report: &report}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, Path: outputPath})
}

// excludePath drops every path naming the excluded file, including aliases
// reached through symbolic links.
func excludePath(paths []string, excluded string, onExcluded func(string)) []string {
	excludedInfo, excludedStatError := os.Stat(excluded)
	sameAsExcluded := func(path string) bool {
		if filepath.Clean(path) == excluded {
			return true
		}
		if excludedStatError != nil {
			return false
		}
		info, statError := os.Stat(path)
		return statError == nil && os.SameFile(info, excludedInfo)
	}
	filtered := make([]string, 0, len(paths))
	for _, path := range paths {
		if sameAsExcluded(path) {
			onExcluded(path)
			continue
		}
		filtered = append(filtered, path)
	}
	return filtered
}
