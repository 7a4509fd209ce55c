// Package capability declares the external collaborators that perform the
// actual archive and codec work.
//
// The dispatcher decides what happens to each file; an Archiver, Transcoder
// or Prober carries it out. Implementations live in subpackages (7-Zip and
// ffmpeg command wrappers) and in internal/media/ffprobe and
// internal/services/drapto. Any implementation may also satisfy Checker so
// preflight can refuse to start a run when the tool is missing.
package capability
