// Package preflight provides readiness checks for the workbook, filesystem
// paths, and the generation endpoint that contentsbuilder depends on.
//
// The `health` command runs RunAll and prints one line per check. The
// screening command runs the same checks first and refuses to start a cycle
// when any of them fail, so a missing key or unreachable model surfaces
// before items are marked as errors.
package preflight
