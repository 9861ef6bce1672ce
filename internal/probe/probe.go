// Package probe answers questions about the process and host the engine runs
// on: memory ceilings, runtime identity, launch options, descriptor limits and
// the identity of the invoking user.
//
// Every function is a stateless read that may be called at any time from any
// goroutine. Failures degrade to documented sentinel values; the only errors
// returned are the fatal ones a process cannot size itself without.
package probe

// Unknown is returned whenever a value cannot be determined.
const Unknown = "<unknown>"
