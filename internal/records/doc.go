// Package records maps header-defined tables onto ordered records and
// exposes read-all, append, and primary-key update against one table.
//
// Row 1 of every table is the header and is the source of truth for column
// identity and order; the store re-reads it on every call and never caches
// data rows. Structured values (lists, objects) are stored as canonical JSON
// text in a single cell. Whether a column holds structured data is declared
// up front in a Definition rather than guessed from cell contents, so a note
// that happens to look like "[draft]" stays a plain string.
//
// Stores obtained from the same Workbook share a mutex per table, which
// serializes the read-modify-write inside Add and Update within a process.
// Nothing here coordinates separate processes; callers that run more than one
// cycle at a time must serialize them (see the runlock package).
package records
