package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tyemirov/treecat/internal/tokenizer"
	"github.com/tyemirov/treecat/internal/types"
	"github.com/tyemirov/treecat/internal/utils"
)

const (
	headerFormat         = "/ File: %s **/\n\n"
	bodyTerminator       = "\n\n"
	copyBufferSize       = 8192
	outputFileMode       = 0o644
	temporaryPattern     = ".%s.*.tmp"
	statusWriting        = "Writing: %s"
	statusSkipping       = "Skipping (not a readable file): %s"
	statusSkippingReason = "Skipping (not a readable file): %s -> %v"
	statusFailed         = "Failed to read: %s -> %v"
	statusComplete       = "Write complete: %s"
	statusTokenFailure   = "Failed to count tokens for %s: %v"
	statusTokenTooLarge  = "Not counting tokens for %s: larger than %s"

	// DefaultTokenCaptureLimit bounds how much of one body is held in memory for token counting.
	DefaultTokenCaptureLimit int64 = 16 << 20
)

// StatusLevel classifies a combine status line.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
	StatusSuccess StatusLevel = "success"
)

// Status is one human readable progress line emitted while combining.
type Status struct {
	Level   StatusLevel
	Path    string
	Message string
}

// CombineOptions configures a Combiner.
type CombineOptions struct {
	HeaderMode types.HeaderMode
	// Atomic writes into a temporary file next to the destination and renames
	// it into place once every file has been processed.
	Atomic       bool
	TokenCounter tokenizer.Counter
	TokenModel   string
	// TokenCaptureLimit is the largest body whose tokens are counted; zero
	// means DefaultTokenCaptureLimit. Larger bodies are still written in full.
	TokenCaptureLimit int64
	Observer          func(Status)
}

// Combiner concatenates selected files into one output, each body preceded
// by a header naming its source.
type Combiner struct {
	Options CombineOptions
	Logger  *zap.Logger
	// OpenSource opens an input file; nil means os.Open.
	OpenSource func(path string) (io.ReadCloser, error)
}

// NewCombiner returns a Combiner with the provided options.
func NewCombiner(options CombineOptions, logger *zap.Logger) *Combiner {
	return &Combiner{Options: options, Logger: logger}
}

// Combine writes orderedFiles into outputPath. A header is written for every
// file, readable or not. Per-file problems are recorded in the Report and do
// not stop the run; only a destination that cannot be opened or written
// returns an error. An empty list produces an empty output file.
func (combiner *Combiner) Combine(ctx context.Context, orderedFiles []string, outputPath string) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{OutputPath: outputPath, Model: combiner.Options.TokenModel}

	destination, openError := openDestination(outputPath, combiner.Options.Atomic)
	if openError != nil {
		combiner.notify(StatusError, outputPath, fmt.Sprintf("Error writing output: %v", openError))
		return report, &OutputOpenError{Path: outputPath, Err: openError}
	}

	writer := bufio.NewWriterSize(destination.file, copyBufferSize)
	for _, filePath := range orderedFiles {
		if contextError := ctx.Err(); contextError != nil {
			destination.abandon()
			return report, contextError
		}
		result, writeError := combiner.writeEntry(writer, filePath)
		report.add(result)
		if writeError != nil {
			destination.abandon()
			combiner.notify(StatusError, outputPath, fmt.Sprintf("Error writing output: %v", writeError))
			return report, &OutputWriteError{Path: outputPath, Err: writeError}
		}
	}

	if flushError := writer.Flush(); flushError != nil {
		destination.abandon()
		return report, &OutputWriteError{Path: outputPath, Err: flushError}
	}
	if commitError := destination.commit(); commitError != nil {
		return report, &OutputWriteError{Path: outputPath, Err: commitError}
	}

	combiner.notify(StatusSuccess, outputPath, fmt.Sprintf(statusComplete, outputPath))
	return report, nil
}

// writeEntry emits the header and, when possible, the body of one file. The
// returned error is reserved for failures of the destination stream.
func (combiner *Combiner) writeEntry(writer *bufio.Writer, filePath string) (FileResult, error) {
	fileName := filepath.Base(filePath)
	result := FileResult{Path: filePath, Header: combiner.headerIdentifier(filePath)}

	combiner.notify(StatusInfo, filePath, fmt.Sprintf(statusWriting, fileName))
	if _, headerError := fmt.Fprintf(writer, headerFormat, result.Header); headerError != nil {
		return result, headerError
	}

	info, statError := os.Stat(filePath)
	if statError != nil || !info.Mode().IsRegular() {
		return combiner.skip(result, fileName, statError), nil
	}

	source, openSourceError := combiner.openSource(filePath)
	if openSourceError != nil {
		if errors.Is(openSourceError, fs.ErrPermission) || errors.Is(openSourceError, fs.ErrNotExist) {
			return combiner.skip(result, fileName, openSourceError), nil
		}
		return combiner.fail(result, fileName, openSourceError), nil
	}
	defer source.Close()

	var captured *bytes.Buffer
	captureLimit := combiner.tokenCaptureLimit()
	captureExceeded := false
	if combiner.Options.TokenCounter != nil {
		captured = &bytes.Buffer{}
	}

	buffer := make([]byte, copyBufferSize)
	for {
		readCount, readError := source.Read(buffer)
		if readCount > 0 {
			if _, writeError := writer.Write(buffer[:readCount]); writeError != nil {
				return result, writeError
			}
			result.BytesWritten += int64(readCount)
			if captured != nil {
				if int64(captured.Len()+readCount) > captureLimit {
					captured = nil
					captureExceeded = true
				} else {
					captured.Write(buffer[:readCount])
				}
			}
		}
		if readError == io.EOF {
			break
		}
		if readError != nil {
			return combiner.fail(result, fileName, readError), nil
		}
	}

	if _, terminatorError := writer.WriteString(bodyTerminator); terminatorError != nil {
		return result, terminatorError
	}
	result.Outcome = OutcomeWritten
	if captured != nil {
		result.Tokens = combiner.countTokens(filePath, captured.Bytes())
	}
	if captureExceeded {
		combiner.notify(StatusWarning, filePath, fmt.Sprintf(statusTokenTooLarge, fileName, utils.FormatFileSize(captureLimit)))
	}
	return result, nil
}

func (combiner *Combiner) skip(result FileResult, fileName string, cause error) FileResult {
	result.Outcome = OutcomeSkipped
	if cause == nil {
		combiner.notify(StatusWarning, result.Path, fmt.Sprintf(statusSkipping, fileName))
		return result
	}
	result.Err = &FileReadError{Path: result.Path, Err: cause}
	result.Error = cause.Error()
	combiner.notify(StatusWarning, result.Path, fmt.Sprintf(statusSkippingReason, fileName, cause))
	combiner.logger().Warn("skipping unreadable file", zap.String("path", result.Path), zap.Error(cause))
	return result
}

func (combiner *Combiner) fail(result FileResult, fileName string, cause error) FileResult {
	result.Outcome = OutcomeFailed
	result.Err = &FileReadError{Path: result.Path, Err: cause}
	result.Error = cause.Error()
	combiner.notify(StatusError, result.Path, fmt.Sprintf(statusFailed, fileName, cause))
	combiner.logger().Warn("failed to read file", zap.String("path", result.Path), zap.Error(cause))
	return result
}

func (combiner *Combiner) countTokens(filePath string, data []byte) int {
	countResult, countError := tokenizer.CountBytes(combiner.Options.TokenCounter, data)
	if countError != nil {
		combiner.notify(StatusWarning, filePath, fmt.Sprintf(statusTokenFailure, filePath, countError))
		return 0
	}
	return countResult.Tokens
}

func (combiner *Combiner) tokenCaptureLimit() int64 {
	if combiner.Options.TokenCaptureLimit > 0 {
		return combiner.Options.TokenCaptureLimit
	}
	return DefaultTokenCaptureLimit
}

func (combiner *Combiner) headerIdentifier(filePath string) string {
	if combiner.Options.HeaderMode == types.HeaderModePath {
		if absolutePath, absoluteError := filepath.Abs(filePath); absoluteError == nil {
			return absolutePath
		}
		return filePath
	}
	return filepath.Base(filePath)
}

func (combiner *Combiner) openSource(filePath string) (io.ReadCloser, error) {
	if combiner.OpenSource != nil {
		return combiner.OpenSource(filePath)
	}
	return os.Open(filePath)
}

func (combiner *Combiner) notify(level StatusLevel, path string, message string) {
	if combiner.Options.Observer != nil {
		combiner.Options.Observer(Status{Level: level, Path: path, Message: message})
	}
}

func (combiner *Combiner) logger() *zap.Logger {
	if combiner.Logger == nil {
		return zap.NewNop()
	}
	return combiner.Logger
}

type combineDestination struct {
	file          *os.File
	finalPath     string
	temporaryPath string
}

func openDestination(outputPath string, atomic bool) (*combineDestination, error) {
	if !atomic {
		file, openError := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileMode)
		if openError != nil {
			return nil, openError
		}
		return &combineDestination{file: file, finalPath: outputPath}, nil
	}
	directory := filepath.Dir(outputPath)
	file, createError := os.CreateTemp(directory, fmt.Sprintf(temporaryPattern, filepath.Base(outputPath)))
	if createError != nil {
		return nil, createError
	}
	if chmodError := file.Chmod(outputFileMode); chmodError != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, chmodError
	}
	return &combineDestination{file: file, finalPath: outputPath, temporaryPath: file.Name()}, nil
}

func (destination *combineDestination) commit() error {
	if closeError := destination.file.Close(); closeError != nil {
		if destination.temporaryPath != "" {
			os.Remove(destination.temporaryPath)
		}
		return closeError
	}
	if destination.temporaryPath == "" {
		return nil
	}
	if renameError := os.Rename(destination.temporaryPath, destination.finalPath); renameError != nil {
		os.Remove(destination.temporaryPath)
		return renameError
	}
	return nil
}

// abandon closes the destination. A non-atomic output keeps what was written
// so far; an atomic one is discarded.
func (destination *combineDestination) abandon() {
	destination.file.Close()
	if destination.temporaryPath != "" {
		os.Remove(destination.temporaryPath)
	}
}
