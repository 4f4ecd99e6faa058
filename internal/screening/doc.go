// Package screening runs the screening cycle.
//
// A cycle holds the workbook lock, loads intake items with status new, asks
// the generation model to score each one, validates the answer, and moves the
// item through screened to promoted or ignored. Items that earn a topic
// backlog row (promoted on score or flagged for misinformation risk) are
// announced through the notifier. Failures are recorded on the item with
// status error and a short note so a later requeue can retry them.
//
// Generation fans out across a bounded worker pool. Every workbook write
// happens under one mutex so rows are appended in a consistent order.
package screening
