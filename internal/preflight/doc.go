// Package preflight provides readiness checks for the databases and
// filesystem paths the matcher depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and refuses to start processing
//     when a required check fails.
//   - The CLI "statmatch status" command uses the check functions to
//     display service health.
package preflight
