package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTransport marks network failures and non-success responses.
	ErrTransport = errors.New("gemini transport error")
	// ErrEmptyResponse marks a success response without usable candidate text.
	ErrEmptyResponse = errors.New("gemini empty response")
	// ErrParse marks candidate text that is not valid JSON for the requested shape.
	ErrParse = errors.New("gemini parse error")
)

// TransportError reports an unreachable endpoint or a non-success status.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gemini request: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("gemini request: http %d: %v: %s", e.StatusCode, e.Err, summarizeSnippet(e.Body))
	}
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, summarizeSnippet(e.Body))
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ErrorKind classifies the failure for status mapping.
func (e *TransportError) ErrorKind() string { return "transport" }

// Retryable reports whether the same request may succeed later: network
// failures, request timeouts, rate limiting, and server errors.
func (e *TransportError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// EmptyResponseError reports a success response with no candidate text.
type EmptyResponseError struct {
	FinishReason string
	BlockReason  string
	Snippet      string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("gemini: no candidates returned (finish_reason=%q, block_reason=%q, response_snippet=%s)",
		e.FinishReason, e.BlockReason, e.Snippet)
}

func (e *EmptyResponseError) Is(target error) bool { return target == ErrEmptyResponse }

// ErrorKind classifies the failure for status mapping.
func (e *EmptyResponseError) ErrorKind() string { return "empty_response" }

// ParseError carries the text that failed to decode.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gemini: failed to parse JSON response: %v (payload snippet: %s)", e.Err, summarizeSnippet(e.Raw))
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ErrorKind classifies the failure for status mapping.
func (e *ParseError) ErrorKind() string { return "parse" }

// Snippet returns a single-line, bounded rendering of the raw payload.
func (e *ParseError) Snippet() string { return summarizeSnippet(e.Raw) }

// ParseRetryAfter interprets a Retry-After header in either delta-seconds
// or HTTP-date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
