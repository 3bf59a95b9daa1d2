package commands

import "fmt"

// AccessError reports a directory whose listing could not be read. The
// directory stays in the tree with no children.
type AccessError struct {
	Path string
	Err  error
}

func (accessError *AccessError) Error() string {
	return fmt.Sprintf("access denied to directory %s: %v", accessError.Path, accessError.Err)
}

func (accessError *AccessError) Unwrap() error { return accessError.Err }

// FileReadError reports a selected file that could not be opened or read to completion.
type FileReadError struct {
	Path string
	Err  error
}

func (readError *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", readError.Path, readError.Err)
}

func (readError *FileReadError) Unwrap() error { return readError.Err }

// OutputOpenError reports a destination that could not be created or opened.
// It is fatal for the whole combine run.
type OutputOpenError struct {
	Path string
	Err  error
}

func (openError *OutputOpenError) Error() string {
	return fmt.Sprintf("open output %s: %v", openError.Path, openError.Err)
}

func (openError *OutputOpenError) Unwrap() error { return openError.Err }

// OutputWriteError reports a failure writing, flushing, or finalizing the destination.
type OutputWriteError struct {
	Path string
	Err  error
}

func (writeError *OutputWriteError) Error() string {
	return fmt.Sprintf("write output %s: %v", writeError.Path, writeError.Err)
}

func (writeError *OutputWriteError) Unwrap() error { return writeError.Err }
