// Package dispatch runs one operation (compress, uncompress, convert, scan,
// or tags) over every eligible file below an input root.
//
// A Request is normalized once against the loaded configuration and then
// treated as read-only. Dispatcher.Run performs the run-level checks (input
// root, option combination, capability availability, the output-root lock)
// before touching any file, enumerates eligible files in sorted order,
// resolves each destination through a mirror.Resolver, and feeds the jobs to a
// bounded errgroup pool. Every eligible file produces exactly one outcome on
// the Recorder, including files skipped by cancellation or a dry run.
//
// Capability calls are bounded by the request timeout and write to hidden
// scratch paths that are renamed into place only on success.
package dispatch
