// Package intake enqueues candidate content into the IntakeQueue table.
//
// Candidates arrive from the CLI or from a YAML/JSON source file. Each one is
// given a dedupe key built from its normalized title and canonical URL, and
// candidates whose key already exists in the queue are skipped. Snippets are
// stripped of markup before they are stored.
package intake
