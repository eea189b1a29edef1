// Package apperr classifies failures so that callers and the HTTP layer
// can react to the kind of error, not its message.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConnector       Kind = "connector"
	KindBlocked         Kind = "blocked"
	KindRateLimited     Kind = "rate_limited"
	KindTransient       Kind = "transient_network"
	KindExtraction      Kind = "extraction"
	KindOCRUnavailable  Kind = "ocr_unavailable"
	KindChunking        Kind = "chunking"
	KindEmbedding       Kind = "embedding"
	KindGeneration      Kind = "generation"
	KindStore           Kind = "store"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInvalidArgument Kind = "invalid_argument"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first classified error in the chain,
// or KindInternal when the error was never classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the failure is worth another attempt with
// backoff. Auth, payload, and data errors are not.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnector, KindBlocked, KindRateLimited, KindTransient:
		return true
	}
	return false
}
