package output

import (
	"github.com/tyemirov/treecat/internal/services/stream"
)

// StreamRenderer consumes stream events as they arrive and writes the
// rendered result once the producer is done.
type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}
