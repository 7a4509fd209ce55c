// Package ffprobe runs ffprobe and turns its JSON into capability.ProbedFacts.
// Prober is the production capability.Prober.
package ffprobe
