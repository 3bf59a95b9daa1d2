package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	colorMuted   = "240"
	colorWarning = "214"
	colorError   = "196"
	colorSuccess = "42"
)

// IsTerminal reports whether writer is a file attached to a terminal.
func IsTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// statusPalette colors status lines by level. A disabled palette returns
// messages unchanged.
type statusPalette struct {
	enabled bool
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	success lipgloss.Style
}

func newStatusPalette(writer io.Writer, enabled bool) statusPalette {
	if writer == nil || !enabled {
		return statusPalette{}
	}
	renderer := lipgloss.NewRenderer(writer)
	return statusPalette{
		enabled: true,
		info:    renderer.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		warning: renderer.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		failure: renderer.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true),
		success: renderer.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
	}
}

func (palette statusPalette) render(level string, message string) string {
	if !palette.enabled {
		return message
	}
	switch level {
	case "warning":
		return palette.warning.Render(message)
	case "error":
		return palette.failure.Render(message)
	case "success":
		return palette.success.Render(message)
	default:
		return palette.info.Render(message)
	}
}
