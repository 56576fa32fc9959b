// Package sequence implements the scripted experiment engine: delay list
// parsing and per-scan shuffling, the validated run configuration, the
// append-only experiment log, and the multi-stage sequencer that drives the
// nested scan/delay loop with retry-until-success acquisition and ordered
// hardware transitions.
package sequence
