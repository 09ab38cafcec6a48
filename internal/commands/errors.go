package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/render"
)

// ErrOverwriteDeclined is matched by every DeclinedError.
var ErrOverwriteDeclined = errors.New("commands: overwrite declined")

// DeclinedError is returned when the operator refuses to overwrite an
// existing post. Reason is shown to the operator as is.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	if e.Reason == "" {
		return "Overwrite declined"
	}
	return e.Reason
}

func (e *DeclinedError) Is(target error) bool {
	return target == ErrOverwriteDeclined
}

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"

	postInvalidCode     = "POST_INVALID"
	postNotFoundCode    = "POST_REFERENCE_NOT_FOUND"
	postSlugConflict    = "POST_SLUG_CONFLICT"
	postDuplicateID     = "POST_DUPLICATE_ID"
	postUnsupportedBody = "POST_UNSUPPORTED_BODY_TYPE"
	postOverwriteDenied = "POST_OVERWRITE_DECLINED"
	shortURLExistsCode  = "SHORT_URL_EXISTS"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError maps domain failures onto go-errors categories.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, posts.ErrInvalidArgument):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid post").
			WithTextCode(postInvalidCode)
	case posts.IsNotFound(err):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "referenced record not found").
			WithTextCode(postNotFoundCode)
	case errors.Is(err, posts.ErrSlugConflict):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "slug conflict").
			WithTextCode(postSlugConflict)
	case errors.Is(err, posts.ErrDuplicateID):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "duplicate post id").
			WithTextCode(postDuplicateID)
	case errors.Is(err, posts.ErrShortURLExists):
		return goerrors.Wrap(err, goerrors.CategoryConflict, "short url exists").
			WithTextCode(shortURLExistsCode)
	case errors.Is(err, render.ErrUnsupportedPostBodyType):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unsupported body type").
			WithTextCode(postUnsupportedBody)
	case errors.Is(err, ErrOverwriteDeclined):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "overwrite declined").
			WithTextCode(postOverwriteDenied)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}

// Message returns the operator facing text of a handler error, stripping the
// category envelope added by the handler.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *goerrors.Error
	if errors.As(err, &wrapped) && wrapped.Source != nil {
		return wrapped.Source.Error()
	}
	return err.Error()
}
