package binary

import "fmt"

// DecodeError reports a malformed or unsupported construct in the binary
// module, identifying the offending section and the byte offset at which the
// problem was noticed.
//
// It wraps the underlying cause: errors.Is(err, wasm.ErrUnsupportedFeature)
// distinguishes "outside the supported subset" from "malformed".
type DecodeError struct {
	// Section is the name of the section being decoded, or "header" for the
	// magic/version preamble.
	Section string
	// Offset is the byte offset into the module at which decoding failed.
	Offset int
	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s section at offset %d: %v", e.Section, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
