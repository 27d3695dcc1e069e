package domain

import (
	"errors"
	"fmt"
)

// ErrorKind identifies a failure surfaced to the user
type ErrorKind string

const (
	ErrEmptyInput          ErrorKind = "empty_input"
	ErrQuotaExceeded       ErrorKind = "quota_exceeded"
	ErrRequestInFlight     ErrorKind = "request_in_flight"
	ErrUnsupportedLanguage ErrorKind = "unsupported_language"
	ErrTranslationFailed   ErrorKind = "translation_failed"
	ErrHistoryWriteFailed  ErrorKind = "history_write_failed"
	ErrHistoryUnavailable  ErrorKind = "history_unavailable"
	ErrDeleteFailed        ErrorKind = "delete_failed"
	ErrQuotaStoreFailed    ErrorKind = "quota_store_failed"
	ErrIdentityUnavailable ErrorKind = "identity_unavailable"
	ErrSpeechUnavailable   ErrorKind = "speech_unavailable"
	ErrSpeechFailed        ErrorKind = "speech_failed"
)

// Category groups error kinds by where they are recovered
type Category string

const (
	CategoryValidation  Category = "validation"
	CategoryUpstream    Category = "upstream"
	CategoryPersistence Category = "persistence"
	CategoryIdentity    Category = "identity"
	CategorySpeech      Category = "speech"
)

// Category returns the group the kind belongs to
func (k ErrorKind) Category() Category {
	switch k {
	case ErrEmptyInput, ErrQuotaExceeded, ErrRequestInFlight, ErrUnsupportedLanguage:
		return CategoryValidation
	case ErrTranslationFailed:
		return CategoryUpstream
	case ErrHistoryWriteFailed, ErrHistoryUnavailable, ErrDeleteFailed, ErrQuotaStoreFailed:
		return CategoryPersistence
	case ErrIdentityUnavailable:
		return CategoryIdentity
	default:
		return CategorySpeech
	}
}

// Error is a user-visible failure with an optional cause
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates an error of the given kind
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err is not an *Error
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
