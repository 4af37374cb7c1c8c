// Package model is the seam between layout generation and LLM providers.
//
// A Model streams Responses for a Request made of role-tagged contents.
// Collect folds a stream into one Response, which is all the layout
// generator needs: it asks for a single JSON document per slot request.
// RenderParts turns data parts (editor context, attachments) into fenced
// JSON blocks for providers that only accept text.
//
// The openai and anthropic subpackages adapt the vendor SDKs. MockModel
// answers from substring scripts and backs the CLI's offline provider.
package model
