package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// GenerateStructured requests JSON-mode output and decodes it into T. The
// text must be exactly one JSON value; code fences, surrounding prose, and
// trailing data all produce a ParseError, and no partial value is returned.
func GenerateStructured[T any](ctx context.Context, g Generator, model, systemInstruction, prompt string) (T, error) {
	var zero T
	text, err := g.GenerateText(ctx, model, systemInstruction, prompt, true)
	if err != nil {
		return zero, err
	}
	return DecodeStrict[T](text)
}

// DecodeStrict parses text as a single JSON value of type T.
func DecodeStrict[T any](text string) (T, error) {
	var zero T
	var out T
	if bytes.Equal(bytes.TrimSpace([]byte(text)), []byte("null")) {
		return zero, &ParseError{Raw: text, Err: errors.New("null document")}
	}
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&out); err != nil {
		return zero, &ParseError{Raw: text, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return zero, &ParseError{Raw: text, Err: errors.New("trailing data after JSON value")}
	}
	return out, nil
}
