// Package layout implements core.Generator on top of a model.Model.
//
// For every slot request the generator renders the instruction template
// with the editor context and previously generated ids, sends the prompt and
// attachments to the model, parses the JSON template it answers with and
// sanitises the contained preview markup. When a renderer and an artifact
// store are configured the preview is rendered to PNG and stored under the
// request's session id.
package layout
