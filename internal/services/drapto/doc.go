// Package drapto integrates the Drapto Go library as the AV1 path of the
// convert operation.
//
// Transcoder satisfies capability.Transcoder: AV1 video targets are encoded
// by Drapto, every other request goes to the wrapped fallback transcoder.
// Drapto's Reporter callbacks are forwarded to the run logger.
package drapto
