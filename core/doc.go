// Package core provides the foundational domain types and small interfaces
// shared by every layoutgen package:
//
//   - Requests (prompt, attachments, editor context and the five-id bundle)
//   - Slot results (pending / success / error) and the Layout payload
//   - Generators (the per-slot request function driven by the orchestrator)
//   - Pluggable stores for panel sessions and rendered preview artifacts
//
// Implementation concerns (model transport, persistence backends, rendering,
// orchestration) live in their own packages and depend on the contracts here,
// never the other way around.
package core
