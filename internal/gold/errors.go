package gold

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindMissingCredentials Kind = "MissingCredentials"
	KindUnauthorized       Kind = "Unauthorized"
	KindUpstreamHTTP       Kind = "UpstreamHTTPError"
	KindUnreachable        Kind = "UpstreamUnreachable"
	KindMalformed          Kind = "MalformedUpstreamResponse"
)

// Error is returned by every failing upstream or cache operation.
// Status and Body are only set when the upstream answered with a non-2xx.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

// Sentinels for errors.Is; matching is by Kind only.
var (
	ErrMissingCredentials = &Error{Kind: KindMissingCredentials}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrUpstreamHTTP       = &Error{Kind: KindUpstreamHTTP}
	ErrUnreachable        = &Error{Kind: KindUnreachable}
	ErrMalformed          = &Error{Kind: KindMalformed}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: upstream status %d", msg, e.Status)
		if e.Body != "" {
			msg += ": " + e.Body
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// AsError extracts the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
