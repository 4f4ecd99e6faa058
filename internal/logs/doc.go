// Package logs reads the contentsbuilder log file for the `logs` command.
//
// Last returns the trailing lines of the file with bounded memory, and
// Follow polls from an offset until the context ends, restarting from the
// top when the file is truncated. A Filter narrows both to matching lines,
// typically everything tagged with one run or item id.
package logs
