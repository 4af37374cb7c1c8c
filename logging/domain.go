package logging

import "time"

// LogSlot records the outcome of a single slot request.
func LogSlot(l Logger, slot int, requestID string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("Slot request failed", "slot", slot, "request_id", requestID, "duration", dur, "error", err.Error())
		return
	}
	l.Debug("Slot request completed", "slot", slot, "request_id", requestID, "duration", dur)
}

// LogBatch records aggregate batch metrics once all slots settled.
func LogBatch(l Logger, batchID string, slots, failed int, dur time.Duration, rolledBack bool) {
	args := []any{"batch_id", batchID, "slot_count", slots, "failed", failed, "duration", dur}
	if rolledBack {
		l.Error("Batch failed, placeholders rolled back", append(args, "rolled_back", true)...)
		return
	}
	l.Info("Batch completed", args...)
}

// LogLLMCall records model call latency, token usage and success.
func LogLLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	args := []any{"model", model, "token_count", tokens, "duration", dur}
	if err != nil {
		l.Error("LLM call failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("LLM call completed", args...)
}
