package stream

import (
	"encoding/xml"
	"time"

	"github.com/tyemirov/treecat/internal/commands"
	"github.com/tyemirov/treecat/internal/types"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart   EventKind = "start"
	EventKindTree    EventKind = "tree"
	EventKindFile    EventKind = "file"
	EventKindStatus  EventKind = "status"
	EventKindWarning EventKind = "warning"
	EventKindError   EventKind = "error"
	EventKindReport  EventKind = "report"
	EventKindDone    EventKind = "done"
)

type Event struct {
	XMLName   xml.Name  `json:"-" xml:"event"`
	Version   int       `json:"version" xml:"version,attr"`
	Kind      EventKind `json:"kind" xml:"kind,attr"`
	Command   string    `json:"command,omitempty" xml:"command,attr,omitempty"`
	Path      string    `json:"path,omitempty" xml:"path,attr,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty" xml:"emittedAt,attr,omitempty"`

	File    *FileEvent            `json:"file,omitempty" xml:"file,omitempty"`
	Status  *StatusEvent          `json:"status,omitempty" xml:"status,omitempty"`
	Message *LogEvent             `json:"message,omitempty" xml:"message,omitempty"`
	Err     *ErrorEvent           `json:"error,omitempty" xml:"error,omitempty"`
	Tree    *types.TreeOutputNode `json:"tree,omitempty" xml:"tree>node,omitempty"`
	Report  *commands.Report      `json:"report,omitempty" xml:"report,omitempty"`
}

// FileEvent names one selected file in selection order.
type FileEvent struct {
	Path         string `json:"path" xml:"path,attr"`
	RelativePath string `json:"relativePath" xml:"relativePath,attr"`
	Index        int    `json:"index" xml:"index,attr"`
}

// StatusEvent carries one progress line of a combine run.
type StatusEvent struct {
	Level   string `json:"level" xml:"level,attr"`
	Message string `json:"message" xml:",chardata"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty" xml:"level,attr,omitempty"`
	Message string `json:"message" xml:",chardata"`
}

type ErrorEvent struct {
	Message string `json:"message" xml:",chardata"`
}
