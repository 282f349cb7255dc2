package store

import "fmt"

// DecodeError reports a language file that could not be read or parsed.
type DecodeError struct {
	Lang string
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s (%s): %v", e.File, e.Lang, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IOError reports a failed write of one language file.
type IOError struct {
	Lang string
	File string
	// Op is the failed step: "encode", "mkdir" or "write".
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.File, e.Lang, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
