package state

// ErrorKind classifies a failure so the presentation layer knows where to show it.
type ErrorKind string

const (
	ErrorNone ErrorKind = ""
	// ErrorValidation is bad input; FieldErrors carries inline messages.
	ErrorValidation ErrorKind = "validation"
	// ErrorAuth is rejected credentials or an expired session.
	ErrorAuth ErrorKind = "auth"
	// ErrorNotFound means the entity no longer exists.
	ErrorNotFound ErrorKind = "not_found"
	// ErrorTransport is a network or server failure and may be retried.
	ErrorTransport ErrorKind = "transport"
)

// Retryable reports whether retrying the same intent could succeed.
func (k ErrorKind) Retryable() bool {
	return k == ErrorTransport
}
