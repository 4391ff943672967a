package analysis

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an analysis failure.
type Kind string

const (
	KindParse       Kind = "parse_error"
	KindUnsupported Kind = "unsupported_language"
	KindTimeout     Kind = "timeout"
	KindTransport   Kind = "transport_error"
	KindEmptyInput  Kind = "empty_input"
	KindInternal    Kind = "internal"
)

// TimeoutMessage is the fixed text reported for an analyzer timeout.
const TimeoutMessage = "analyzer exceeded time limit"

// Error is the error type returned by analyzers and the registry.
type Error struct {
	Kind     Kind
	Language string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Language != "" {
		msg = fmt.Sprintf("%s (%s): %s", e.Kind, e.Language, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, lang, message string, cause error) error {
	return &Error{Kind: kind, Language: lang, Message: message, Cause: cause}
}

// NewParseError reports malformed or unparseable source.
func NewParseError(lang, message string, cause error) error {
	return newError(KindParse, lang, message, cause)
}

// NewUnsupportedLanguage reports a tag with no registered analyzer.
func NewUnsupportedLanguage(lang string) error {
	return newError(KindUnsupported, lang, fmt.Sprintf("unsupported language %q", lang), nil)
}

// NewTimeoutError reports an analyzer that exceeded its bound.
func NewTimeoutError(lang string, cause error) error {
	return newError(KindTimeout, lang, TimeoutMessage, cause)
}

// NewTransportError reports an unreachable or failing collaborator.
func NewTransportError(lang, message string, cause error) error {
	return newError(KindTransport, lang, message, cause)
}

// NewEmptyInputError reports that no source was provided.
func NewEmptyInputError(lang string) error {
	return newError(KindEmptyInput, lang, "no code provided", nil)
}

// NewInternalError reports a programming fault recovered at a stage boundary.
func NewInternalError(message string, cause error) error {
	return newError(KindInternal, "", message, cause)
}

// KindOf classifies err. Context deadlines count as timeouts; anything
// unclassified is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether err is an analysis error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
