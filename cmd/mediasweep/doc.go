// Package main hosts the mediasweep CLI entrypoint and command graph.
//
// Each operation command (compress, uncompress, convert, scan, tags) turns its
// flags into a dispatch.Request, binds the configured external tools, and
// hands the request to the dispatcher together with a run reporter. The
// remaining commands inspect run history, report tool availability, and
// scaffold configuration.
package main
