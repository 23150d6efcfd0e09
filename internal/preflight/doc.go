// Package preflight provides readiness checks for the directories, catalog,
// and database that tempo depends on.
//
// These checks run in two contexts:
//   - The daemon and the collect command call RunAll before starting work,
//     so a missing catalog or an unwritable data directory surfaces once,
//     up front, instead of as repeated scrape-time failures.
//   - The CLI "tempo status" command renders the individual results to
//     display runtime health.
//
// Each check is gated by its config toggle -- a disabled store is skipped.
package preflight
