package core

import "encoding/json"

// Layout is the payload produced by a successful slot request.
type Layout struct {
	// ID is the base template identifier. Successful ids are fed back to
	// later requests through Request.PrevGeneratedIDs.
	ID         string          `json:"id"`
	Label      string          `json:"label,omitempty"`
	Source     string          `json:"source,omitempty"`
	HTML       string          `json:"html,omitempty"`
	Template   json.RawMessage `json:"template,omitempty"`
	Screenshot string          `json:"screenshot,omitempty"` // artifact id of the rendered preview
}

// SlotStatus is the state of a single result slot.
type SlotStatus string

const (
	// SlotPending means the slot request is in flight (or not yet started).
	SlotPending SlotStatus = "pending"
	// SlotSuccess means the slot holds a generated layout.
	SlotSuccess SlotStatus = "success"
	// SlotFailure means the slot request failed or was aborted.
	SlotFailure SlotStatus = "error"
)

// SlotResult is a tagged union over Pending, Success(layout) and Error.
type SlotResult struct {
	Status SlotStatus `json:"status"`
	Layout *Layout    `json:"layout,omitempty"`
}

// Pending returns a pending slot.
func Pending() SlotResult { return SlotResult{Status: SlotPending} }

// Succeeded returns a success slot holding a copy of l.
func Succeeded(l Layout) SlotResult { return SlotResult{Status: SlotSuccess, Layout: &l} }

// Failed returns an error slot.
func Failed() SlotResult { return SlotResult{Status: SlotFailure} }

// IsPending reports whether the slot is still waiting for its request.
func (r SlotResult) IsPending() bool { return r.Status == SlotPending }

// IsSuccess reports whether the slot holds a layout.
func (r SlotResult) IsSuccess() bool { return r.Status == SlotSuccess && r.Layout != nil }

// IsError reports whether the slot failed.
func (r SlotResult) IsError() bool { return r.Status == SlotFailure }

// GeneratedIDs returns the layout ids of successful slots in order. Pending
// and error slots contribute nothing.
func GeneratedIDs(results []SlotResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.IsSuccess() && r.Layout.ID != "" {
			out = append(out, r.Layout.ID)
		}
	}
	return out
}

// CloneResults returns a deep copy of results.
func CloneResults(results []SlotResult) []SlotResult {
	out := make([]SlotResult, len(results))
	for i, r := range results {
		out[i] = r
		if r.Layout != nil {
			l := *r.Layout
			out[i].Layout = &l
		}
	}
	return out
}
