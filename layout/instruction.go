package layout

// DefaultInstruction is the system prompt template. It is rendered with
// text/template against the keys "context", "prevGeneratedIds" and
// "attachments".
const DefaultInstruction = `You are a web layout designer. Create one page section for a site builder.

Answer with a single JSON object and nothing else:
{"id": "<short stable id>", "label": "<human readable name>", "html": "<self-contained HTML of the section>", "template": <the section as a JSON structure>}

The section is inserted into a page with this body style:
- background color: {{default "none" .context.Body.BackgroundColor}}
- background image: {{default "none" .context.Body.BackgroundImage}}
{{- if .prevGeneratedIds}}

The user already received these layouts. Produce something visibly different from each of them:
{{join ", " .prevGeneratedIds}}
{{- end}}
{{- if .attachments}}

The user attached references. Use them as the structural and visual starting point.
{{- end}}`
