package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/layoutgen/core"
)

// ErrNoResponse is returned by Collect when a model closed its channels
// without producing a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Request captures the normalized model input produced by the layout generator.
type Request struct {
	Instructions string         `json:"instructions"` // System instructions for the model
	Contents     []core.Content `json:"contents"`     // Converted to provider messages
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains both channels of a Generate call and returns the final
// (non-partial) response. The first error wins.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var final *Response
	var firstErr error
	for respCh != nil || errCh != nil {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				rc := r
				final = &rc
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}

	if firstErr != nil {
		return Response{}, firstErr
	}
	if final == nil {
		return Response{}, ErrNoResponse
	}
	return *final, nil
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Responses are matched by substring of the last user message; the first
// registered match wins.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses []mockResponse
	fallback  func(req Request) (string, error)
	requests  []Request
}

type mockResponse struct {
	contains string
	text     string
	err      error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse registers a canned completion for prompts containing substr.
func (m *MockModel) AddResponse(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{contains: substr, text: response})
}

// AddError registers a failure for prompts containing substr.
func (m *MockModel) AddError(substr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{contains: substr, err: err})
}

// SetFallback sets the function used when no registered response matches.
func (m *MockModel) SetFallback(fn func(req Request) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = fn
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) lookup(req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	var input string
	if len(req.Contents) > 0 {
		input = req.Contents[len(req.Contents)-1].Text()
	}
	for _, r := range m.responses {
		if strings.Contains(input, r.contains) {
			return r.text, r.err
		}
	}
	if m.fallback != nil {
		return m.fallback(req)
	}
	return fmt.Sprintf("Mock response to: %s", input), nil
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		full, err := m.lookup(req)
		if err != nil {
			errCh <- err
			return
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: string(r)}},
					},
				}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Partial: false,
			Content: core.Content{
				Role:  "assistant",
				Parts: []core.Part{core.TextPart{Text: full}},
			},
			FinishReason: "stop",
		}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// RenderParts flattens content parts into prompt text. Text parts are kept
// verbatim; data parts are rendered as fenced JSON.
func RenderParts(parts []core.Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			b.WriteString(part.Text)
		case core.DataPart:
			raw, err := json.MarshalIndent(part.Data, "", "  ")
			if err != nil {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("```json\n")
			b.Write(raw)
			b.WriteString("\n```\n")
		}
	}
	return b.String()
}
