// Package preflight provides readiness checks for the external services and
// filesystem paths the pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs each result, so a bad API
//     key or unreachable feed surfaces before the first episode arrives.
//   - The CLI "podbrief status" command renders the same results so an
//     operator can verify credentials without starting the daemon.
//
// Checks never mutate state; a failed result carries a detail string meant
// for direct display.
package preflight
