// Package preflight provides readiness checks for the filesystem paths and
// binaries mediasweep depends on.
//
// These checks run in two contexts:
//   - The dispatcher verifies the operation root and output location before a
//     run touches any file.
//   - The CLI "check" command renders RunAll and CheckSystemDeps as tables.
package preflight
