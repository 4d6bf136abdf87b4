// Package core provides the business logic of the gampong ledgers.
//
// This package holds every read, edit and export operation on the four
// Langsa ledgers, independent of any transport. It can be used by the web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Store: ledgers are read through [store.Store], which caches whole
//     grids for a short TTL and batches cell writes.
//   - Views: grids are normalized into typed records on every read.
//   - Edits: every mutation is written as one batch, audited cell by cell,
//     and, when it touches the village head, propagated to the other ledgers.
//   - Export: ledgers are rendered into template workbooks and bundled.
//
// # Degraded Reads
//
// View methods never fail. When a ledger cannot be read the view is empty
// and a warning is logged. Edits and exports return the backend error.
//
// # Cross-Ledger Propagation
//
// The village head appears in the roster, detail and staff ledgers. Edits to
// name, gender, position, phone or village code in one of them are carried
// into the others by [reconcile.Engine]. Every edit request gets a batch ID
// so the audit entries of one edit and its propagation can be listed together.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - LDG001-LDG008: Ledger errors (missing rows, protected positions, values)
//   - EXP001-EXP003: Export errors (templates, empty ledgers, busy)
//   - DB004-DB007: Backend errors (connections, timeouts, locks)
//
// # Audit Logging
//
// All data modifications are recorded in an in-memory audit ring with
// severity levels:
//
//   - Low: Exports and cache flushes
//   - Medium: Cell edits and propagation
//   - High: Row inserts and deletions
package core
