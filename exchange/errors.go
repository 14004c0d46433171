package exchange

import "fmt"

// ConflictError reports a request item that cannot be encoded in the body
// type that was selected.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// FileError reports a form file that could not be opened or inspected.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading file '%s': %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
