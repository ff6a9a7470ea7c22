package connect

import "errors"

var (
	ErrInvalidPeerKey   = errors.New("invalid peer client id")
	ErrKeyUnavailable   = errors.New("wallet key unavailable")
	ErrProof            = errors.New("ton_proof not signed")
	ErrRelayUnreachable = errors.New("relay unreachable")
	ErrPersist          = errors.New("persist session")
)

// Error is returned by Connect. Kind is one of the sentinels above.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "connect: " + e.Kind.Error()
	}
	return "connect: " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(kind, err error) error { return &Error{Kind: kind, Err: err} }
