// Package fileutil holds the file copy, move and scratch-directory helpers
// shared by every operation. Moves fall back to copy-then-remove when source
// and destination sit on different filesystems.
package fileutil
