package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tyemirov/treecat/internal/services/stream"
)

const (
	xmlRootOpen  = "<events>\n"
	xmlRootClose = "</events>\n"
)

type xmlStreamRenderer struct {
	stdout  io.Writer
	stderr  io.Writer
	command string
	encoder *xml.Encoder
	started bool
}

func NewXMLStreamRenderer(stdout, stderr io.Writer, command string) StreamRenderer {
	return &xmlStreamRenderer{stdout: stdout, stderr: stderr, command: command}
}

func (renderer *xmlStreamRenderer) Handle(event stream.Event) error {
	if event.Kind == stream.EventKindWarning && event.Message != nil && renderer.stderr != nil {
		fmt.Fprintln(renderer.stderr, event.Message.Message)
	}
	if event.Kind == stream.EventKindError && event.Err != nil && renderer.stderr != nil {
		fmt.Fprintln(renderer.stderr, event.Err.Message)
	}
	return renderer.writeEvent(event)
}

// Flush closes the document. A renderer that saw no events still writes an
// empty root element.
func (renderer *xmlStreamRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(renderer.stdout, xmlRootClose)
	return err
}

func (renderer *xmlStreamRenderer) ensureEncoder() error {
	if renderer.stdout == nil || renderer.started {
		return nil
	}
	if _, err := io.WriteString(renderer.stdout, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(renderer.stdout, xmlRootOpen); err != nil {
		return err
	}
	renderer.encoder = xml.NewEncoder(renderer.stdout)
	renderer.encoder.Indent("", "  ")
	renderer.started = true
	return nil
}

func (renderer *xmlStreamRenderer) writeEvent(event stream.Event) error {
	if renderer.stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	command := event.Command
	if command == "" {
		command = renderer.command
	}
	start := xml.StartElement{Name: xml.Name{Local: "event"}}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "version"}, Value: strconv.Itoa(event.Version)})
	if event.Kind != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "kind"}, Value: string(event.Kind)})
	}
	if command != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "command"}, Value: command})
	}
	if event.Path != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "path"}, Value: event.Path})
	}
	if !event.EmittedAt.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "emittedAt"}, Value: event.EmittedAt.Format(time.RFC3339Nano)})
	}
	if err := renderer.encoder.EncodeToken(start); err != nil {
		return err
	}
	elements := []struct {
		name  string
		value interface{}
		set   bool
	}{
		{"file", event.File, event.File != nil},
		{"status", event.Status, event.Status != nil},
		{"message", event.Message, event.Message != nil},
		{"error", event.Err, event.Err != nil},
		{"report", event.Report, event.Report != nil},
	}
	for _, element := range elements {
		if !element.set {
			continue
		}
		if err := renderer.encoder.EncodeElement(element.value, xml.StartElement{Name: xml.Name{Local: element.name}}); err != nil {
			return err
		}
	}
	if event.Tree != nil {
		treeStart := xml.StartElement{Name: xml.Name{Local: "tree"}}
		if err := renderer.encoder.EncodeToken(treeStart); err != nil {
			return err
		}
		if err := renderer.encoder.Encode(event.Tree); err != nil {
			return err
		}
		if err := renderer.encoder.EncodeToken(treeStart.End()); err != nil {
			return err
		}
	}
	if err := renderer.encoder.EncodeToken(start.End()); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	if _, err := renderer.stdout.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
