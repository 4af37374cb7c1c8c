// Package generation orchestrates fan-out layout generation.
//
// An Orchestrator owns an ordered result set and, on every Generate or
// Regenerate call, issues one request per slot (N slots, fixed at
// construction) against a core.Generator. Each slot request runs on its own
// goroutine; completions are folded into the result set as they arrive so
// partial results are visible before the batch finishes:
//
//   - a success claims the first pending slot of its batch, scanning from the start
//   - a failure (including cancellation) marks the last pending slot of its batch
//     as an error, scanning from the end
//   - once all N requests settled, a batch in which every request failed is
//     removed from the result set entirely
//
// Generate resets the result set and mints a new generate id; Regenerate keeps
// the generate id and appends to the history. Abort cancels the most recent
// batch; its requests then settle through the normal failure path.
//
// The claim heuristic is best effort: two successes completing out of request
// order may land in swapped visual positions.
package generation
