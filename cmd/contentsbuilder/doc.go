// Package main hosts the contentsbuilder CLI entrypoint and command graph.
//
// The Cobra-based command tree runs intake and screening cycles against the
// configured workbook, lists table contents, requeues failed items, checks
// readiness, and scaffolds configuration. It centralizes configuration
// resolution, workbook opening, and logging setup so subcommands can focus
// on output instead of wiring.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a dedicated command or flag here.
package main
