// Package reliability provides retry policies and circuit breaking used by
// the built-in pipeline middleware. It has no knowledge of messages or
// pipelines; it operates on plain operations returning errors.
package reliability
