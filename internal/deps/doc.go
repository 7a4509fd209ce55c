// Package deps reports whether the external binaries behind each capability
// can be found. The check command renders the result as a table.
package deps
