package diag

import "errors"

// OpError is a tagged operation failure carried by mutation primitives and
// lookups. The Code maps onto the same space as validation findings.
type OpError struct {
	Code Code
	Msg  string
}

func (e *OpError) Error() string { return e.Msg }

// CodeOf extracts the error class, or UnknownCode for foreign errors.
func CodeOf(err error) Code {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Code
	}
	return UnknownCode
}
