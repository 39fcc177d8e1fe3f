package errors

import (
	stderrors "errors"
	"fmt"
)

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)

// AppError carries a wire code next to the message.
// Sentinels below are compared with errors.Is, so wrapping with %w keeps the code.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

var (
	ErrInvalidInput      = New(CodeInvalidArgument, "invalid input")
	ErrForbidden         = New(CodePermissionDenied, "forbidden")
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrTransientDelivery = New(CodeUnavailable, "transient delivery failure")
	ErrUnauthenticated   = New(CodeUnauthenticated, "unauthenticated")

	ErrEmptyContent     = fmt.Errorf("%w: content is empty", ErrInvalidInput)
	ErrContentTooLong   = fmt.Errorf("%w: content is too long", ErrInvalidInput)
	ErrSelfConversation = fmt.Errorf("%w: sender and recipient are the same user", ErrInvalidInput)
	ErrNotGroupMember   = fmt.Errorf("%w: user is not a member of the group", ErrForbidden)
	ErrCannotMessage    = fmt.Errorf("%w: users are not allowed to message each other", ErrForbidden)
	ErrNotRecipient     = fmt.Errorf("%w: only the recipient can acknowledge a message", ErrForbidden)
	ErrGroupNotFound    = fmt.Errorf("%w: group", ErrNotFound)
	ErrMessageNotFound  = fmt.Errorf("%w: message", ErrNotFound)

	ErrSinkFull   = fmt.Errorf("%w: connection buffer full", ErrTransientDelivery)
	ErrSinkClosed = fmt.Errorf("%w: connection closed", ErrTransientDelivery)

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)

// CodeOf returns the wire code of the first AppError found in the chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
