package core

import "fmt"

// DecodeError reports a CSV row (or header) that could not be decoded into
// its record kind. Line is the 1-based line in the source file; 0 when the
// failure is not tied to a line.
type DecodeError struct {
	Table  string
	Line   int
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("decode %s line %d column %s: %v", e.Table, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("decode %s line %d: %v", e.Table, e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("decode %s column %s: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Table, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError reports a catalog/store inconsistency: a failed CREATE, or an
// insert whose arity does not match the table.
type SchemaError struct {
	Table string
	Op    string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ConsistencyError reports a failed internal invariant check.
type ConsistencyError struct {
	Check string
	Want  int64
	Got   int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency check %q failed: want %d, got %d", e.Check, e.Want, e.Got)
}

// SnapshotError reports a failed durable copy. No valid snapshot exists at
// Path after this error.
type SnapshotError struct {
	Path string
	Err  error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Path, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }
