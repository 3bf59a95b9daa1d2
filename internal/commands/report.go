package commands

import (
	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

// FileOutcome describes what happened to one selected file.
type FileOutcome string

const (
	// OutcomeWritten means the header and the full body were written.
	OutcomeWritten FileOutcome = "written"
	// OutcomeSkipped means the file was missing, not regular, or unreadable; only the header was written.
	OutcomeSkipped FileOutcome = "skipped"
	// OutcomeFailed means reading stopped partway; the header and a partial body may have been written.
	OutcomeFailed FileOutcome = "failed"
)

// FileResult is the per-file entry of a Report.
type FileResult struct {
	Path         string      `json:"path" xml:"path,attr"`
	Header       string      `json:"header" xml:"header,attr"`
	Outcome      FileOutcome `json:"outcome" xml:"outcome,attr"`
	BytesWritten int64       `json:"bytesWritten" xml:"bytesWritten,attr"`
	Tokens       int         `json:"tokens,omitempty" xml:"tokens,attr,omitempty"`
	Error        string      `json:"error,omitempty" xml:"error,attr,omitempty"`
	Err          error       `json:"-" xml:"-"`
}

// Report is the outcome of one Combine call.
type Report struct {
	OutputPath   string       `json:"output" xml:"output,attr"`
	Files        []FileResult `json:"files" xml:"file"`
	Written      int          `json:"written" xml:"written,attr"`
	Skipped      int          `json:"skipped" xml:"skipped,attr"`
	Failed       int          `json:"failed" xml:"failed,attr"`
	BytesWritten int64        `json:"bytesWritten" xml:"bytesWritten,attr"`
	Tokens       int          `json:"tokens,omitempty" xml:"tokens,attr,omitempty"`
	Model        string       `json:"model,omitempty" xml:"model,attr,omitempty"`
}

func (report *Report) add(result FileResult) {
	if result.Outcome == "" {
		return
	}
	report.Files = append(report.Files, result)
	report.BytesWritten += result.BytesWritten
	switch result.Outcome {
	case OutcomeWritten:
		report.Written++
		report.Tokens += result.Tokens
	case OutcomeSkipped:
		report.Skipped++
	case OutcomeFailed:
		report.Failed++
	}
}

// Warnings returns the recorded per-file errors in processing order.
func (report Report) Warnings() []error {
	var warnings []error
	for _, result := range report.Files {
		if result.Err != nil {
			warnings = append(warnings, result.Err)
		}
	}
	return warnings
}

// Summary converts the report into the aggregate rendered by the output package.
func (report Report) Summary() types.OutputSummary {
	summary := types.OutputSummary{
		Written:     report.Written,
		Skipped:     report.Skipped,
		Failed:      report.Failed,
		TotalSize:   utils.FormatFileSize(report.BytesWritten),
		TotalTokens: report.Tokens,
	}
	if report.Tokens > 0 {
		summary.Model = report.Model
	}
	return summary
}
