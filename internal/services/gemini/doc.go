// Package gemini talks to the Gemini generateContent REST endpoint.
//
// GenerateText sends one system instruction and one user turn and returns
// the candidate text; in JSON mode it also asks the endpoint for an
// application/json response. GenerateStructured decodes that text into a
// caller-declared type and fails with a ParseError rather than returning a
// partially populated value. The client makes exactly one HTTP call per
// request and never retries; the screening cycle owns retry policy.
package gemini
