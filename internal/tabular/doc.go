// Package tabular defines the grid capability the record layer persists
// through and ships two implementations of it.
//
// An Adapter addresses a named table of scalar cells by 1-based row and
// column indices, the way a spreadsheet does. Memory keeps grids in process
// and backs tests and dry runs; SQLiteWorkbook stores every non-empty cell in
// a single SQLite file so the pipeline state survives between cycles.
//
// Adapters know nothing about headers or records. Schema lives one level up
// in the records package, which treats row 1 of every table as the header.
package tabular
