// Package media describes the files mediasweep operates on.
//
// It owns the extension tables that decide whether a path is audio, video, or
// one of our archives, and the MediaFile value built for every eligible file
// discovered during a run. Subpackages wrap external inspection tools.
package media
