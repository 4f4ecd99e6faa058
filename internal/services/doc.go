// Package services defines shared utilities consumed by the pipeline cycles
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, cycle names, and intake item IDs
//     for logging.
//   - Failure classification that turns typed errors from the record store,
//     the generation client, and validation into a retry decision and a short
//     operator note.
package services
