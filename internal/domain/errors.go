package domain

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidToken        = errors.New("invalid authentication credentials")
	ErrMissingToken        = errors.New("missing bearer token")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrModelIDRequired     = errors.New("model_id is required")
	ErrPayloadIncomplete   = errors.New("'messages' and 'anthropic_version' are required")
	ErrInvalidRequest      = errors.New("invalid request body")
	ErrUpstream            = errors.New("bedrock invocation failed")
)

// Kind classifies an error at a component boundary. The HTTP layer maps
// each kind to exactly one status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindValidation
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication_error"
	case KindValidation:
		return "validation_error"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
