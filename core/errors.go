package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotFailed wraps every individual slot failure, including cancellation.
	ErrSlotFailed = errors.New("slot generation failed")

	// ErrBatchFailed marks a batch in which every slot failed.
	ErrBatchFailed = errors.New("all slots in batch failed")

	// ErrEmptyInput is returned when neither a prompt nor an attachment is given.
	ErrEmptyInput = errors.New("prompt and attachments are both empty")

	// ErrLimitExceeded is returned once a session used up its generation budget.
	ErrLimitExceeded = errors.New("generation limit exceeded")
)

// SlotError describes the failure of a single slot request.
type SlotError struct {
	Slot      int
	RequestID string
	Err       error
}

// Error implements error.
func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d (%s): %v", e.Slot, e.RequestID, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *SlotError) Unwrap() []error { return []error{ErrSlotFailed, e.Err} }
