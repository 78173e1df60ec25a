package source

import "fmt"

// SourceNotFoundError reports a missing source file or layer.
type SourceNotFoundError struct {
	Path  string
	Layer string
	Err   error
}

func (e *SourceNotFoundError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("source: %s not found", e.Path)
	}
	return fmt.Sprintf("source: layer %q not found in %s", e.Layer, e.Path)
}

func (e *SourceNotFoundError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a credential or transport failure against the
// remote blob store. It is never retried.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "source: remote connection: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
