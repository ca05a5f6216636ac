package goToken

import (
	"errors"
	"fmt"
)

// ErrorCode discriminates goToken failures independently of the Go type that carries them.
type ErrorCode string

const (
	// CodeInvalidOption marks a bad signer or decoder construction parameter.
	CodeInvalidOption ErrorCode = "GOTOKEN_INVALID_OPTION"
	// CodeInvalidType marks a payload or token with the wrong runtime shape.
	CodeInvalidType ErrorCode = "GOTOKEN_INVALID_TYPE"
	// CodeInvalidKey marks key material that cannot sign with the declared algorithm.
	CodeInvalidKey ErrorCode = "GOTOKEN_INVALID_KEY"
	// CodeMalformed marks a token that fails structural or segment decoding.
	CodeMalformed ErrorCode = "GOTOKEN_MALFORMED"
	// CodeKeyFetching marks a failed or unusable deferred key resolution.
	CodeKeyFetching ErrorCode = "GOTOKEN_KEY_FETCHING_ERROR"
	// CodeSignError marks a signature primitive failure unrelated to the key.
	CodeSignError ErrorCode = "GOTOKEN_SIGN_ERROR"
)

var (
	// ErrInvalidOption is the errors.Is target for [CodeInvalidOption].
	ErrInvalidOption = errors.New("invalid option")
	// ErrInvalidType is the errors.Is target for [CodeInvalidType].
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidKey is the errors.Is target for [CodeInvalidKey].
	ErrInvalidKey = errors.New("invalid key")
	// ErrMalformed is the errors.Is target for [CodeMalformed].
	ErrMalformed = errors.New("malformed token")
	// ErrKeyFetching is the errors.Is target for [CodeKeyFetching].
	ErrKeyFetching = errors.New("key fetching error")
	// ErrSign is the errors.Is target for [CodeSignError].
	ErrSign = errors.New("sign error")
)

var codeSentinels = map[ErrorCode]error{
	CodeInvalidOption: ErrInvalidOption,
	CodeInvalidType:   ErrInvalidType,
	CodeInvalidKey:    ErrInvalidKey,
	CodeMalformed:     ErrMalformed,
	CodeKeyFetching:   ErrKeyFetching,
	CodeSignError:     ErrSign,
}

// Error is the single error type returned by goToken operations.
//
// Match on the code with errors.Is against the Err* sentinels, or read it with [CodeOf].
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code and message, keeping err as the cause. Wrapping an *Error
// re-tags it: the outer code wins and the original stays reachable via errors.Unwrap.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of e's code. Causes are still visited by errors.Is.
func (e *Error) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
