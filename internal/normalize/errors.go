package normalize

import "fmt"

// SchemaError reports a column spec that does not fit the source: a missing
// source column or an unusable value spec.
type SchemaError struct {
	Column string
	Row    int // -1 when not tied to a row
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("normalize: column %q: %s (row %d)", e.Column, e.Reason, e.Row)
	}
	return fmt.Sprintf("normalize: column %q: %s", e.Column, e.Reason)
}

// TypeCoercionError reports a value that cannot be converted to its declared
// type. Column is the renamed column; Row is the index after null-geometry
// rows have been dropped.
type TypeCoercionError struct {
	Column string
	Row    int
	Type   ColumnType
	Value  any
	Err    error
}

func (e *TypeCoercionError) Error() string {
	msg := fmt.Sprintf("normalize: column %q row %d: cannot convert %#v to %s", e.Column, e.Row, e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeCoercionError) Unwrap() error {
	return e.Err
}
