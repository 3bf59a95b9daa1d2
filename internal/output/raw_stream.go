package output

import (
	"fmt"
	"io"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/services/stream"
	"github.com/tyemirov/treecat/internal/types"
)

type rawStreamRenderer struct {
	stdout         io.Writer
	stderr         io.Writer
	command        string
	includeSummary bool
	palette        statusPalette
	trees          []*types.TreeOutputNode
	reports        []*commands.Report
}

// NewRawStreamRenderer renders trees and file lists on stdout and progress on
// stderr. styled enables colored status lines.
func NewRawStreamRenderer(stdout, stderr io.Writer, command string, includeSummary bool, styled bool) StreamRenderer {
	return &rawStreamRenderer{
		stdout:         stdout,
		stderr:         stderr,
		command:        command,
		includeSummary: includeSummary,
		palette:        newStatusPalette(stderr, styled),
	}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindWarning:
		if event.Message != nil {
			renderer.printStatus(string(commands.StatusWarning), event.Message.Message)
		}
	case stream.EventKindError:
		if event.Err != nil {
			renderer.printStatus(string(commands.StatusError), event.Err.Message)
		}
	case stream.EventKindStatus:
		if event.Status != nil {
			renderer.printStatus(event.Status.Level, event.Status.Message)
		}
	case stream.EventKindFile:
		if event.File != nil && renderer.stdout != nil {
			if _, err := fmt.Fprintln(renderer.stdout, event.File.Path); err != nil {
				return err
			}
		}
	case stream.EventKindTree:
		if event.Tree != nil {
			renderer.trees = append(renderer.trees, cloneTreeNode(event.Tree))
		}
	case stream.EventKindReport:
		if event.Report != nil {
			report := *event.Report
			renderer.reports = append(renderer.reports, &report)
		}
	}
	return nil
}

func (renderer *rawStreamRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	for index, node := range renderer.trees {
		if index > 0 {
			fmt.Fprintln(renderer.stdout)
		}
		WriteTreeRaw(renderer.stdout, node, renderer.includeSummary)
	}
	if renderer.includeSummary {
		for _, report := range renderer.reports {
			summary := report.Summary()
			if _, err := fmt.Fprintln(renderer.stdout, FormatSummaryLine(&summary)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (renderer *rawStreamRenderer) printStatus(level string, message string) {
	if renderer.stderr == nil || message == "" {
		return
	}
	fmt.Fprintln(renderer.stderr, renderer.palette.render(level, message))
}
