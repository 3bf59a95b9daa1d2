package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tyemirov/treecat/internal/services/stream"
)

// jsonStreamRenderer writes every event as one JSON document per line.
type jsonStreamRenderer struct {
	stdout  io.Writer
	stderr  io.Writer
	command string
	encoder *json.Encoder
}

func NewJSONStreamRenderer(stdout, stderr io.Writer, command string) StreamRenderer {
	renderer := &jsonStreamRenderer{stdout: stdout, stderr: stderr, command: command}
	if stdout != nil {
		renderer.encoder = json.NewEncoder(stdout)
		renderer.encoder.SetEscapeHTML(false)
	}
	return renderer
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindWarning:
		if event.Message != nil && renderer.stderr != nil {
			if _, err := fmt.Fprintln(renderer.stderr, event.Message.Message); err != nil {
				return err
			}
		}
	case stream.EventKindError:
		if event.Err != nil && renderer.stderr != nil {
			if _, err := fmt.Fprintln(renderer.stderr, event.Err.Message); err != nil {
				return err
			}
		}
	}
	if renderer.encoder == nil {
		return nil
	}
	if event.Command == "" {
		event.Command = renderer.command
	}
	return renderer.encoder.Encode(event)
}

func (renderer *jsonStreamRenderer) Flush() error {
	return nil
}
