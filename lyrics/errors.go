package lyrics

import "errors"

// Kind classifies the failure modes of the fetch pipeline. The set is closed:
// the HTTP layer maps kinds to response bodies and the coordinator decides
// which kinds to swallow during the candidate scan.
type Kind int

const (
	KindRequest Kind = iota + 1
	KindParams
	KindNotFound
	KindDecrypt
	KindProcessing
	KindTranslate
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "APIRequestError"
	case KindParams:
		return "APIParamsError"
	case KindNotFound:
		return "LyricsNotFoundError"
	case KindDecrypt:
		return "LyricsDecryptError"
	case KindProcessing:
		return "LyricsProcessingError"
	case KindTranslate:
		return "TranslateError"
	}
	return "Error"
}

// Error is a classified pipeline error, optionally wrapping a cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error with no cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an Error carrying a proximate cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or 0 when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
