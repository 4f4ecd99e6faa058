package services

import (
	"context"
	"errors"
	"strings"
)

// ErrorClassifier allows errors to declare their classification.
// Known kinds: "transport", "empty_response", "parse", "validation",
// "not_found". Unclassified errors report "internal".
type ErrorClassifier interface {
	ErrorKind() string
}

// retryable is implemented by errors that know whether a repeat can succeed.
type retryable interface {
	Retryable() bool
}

// Kind returns the classification of err, or "internal" when none is declared.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "internal"
}

// Retryable reports whether repeating the same call may succeed. Only
// errors that say so are retried; parse, empty-response, and validation
// failures would fail again on the same prompt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// FailureNote renders err as a single-line note for the intake queue,
// prefixed with its kind and bounded in length.
func FailureNote(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	const limit = 300
	if runes := []rune(msg); len(runes) > limit {
		msg = string(runes[:limit]) + "..."
	}
	return Kind(err) + ": " + msg
}
