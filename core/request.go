package core

// IDs is the identifier bundle attached to every slot request. Each scope is
// minted at a different lifecycle point (see package ids).
type IDs struct {
	EditorSessionID string `json:"editorSessionId"` // once per editor process
	SessionID       string `json:"sessionId"`       // once per panel open
	GenerateID      string `json:"generateId"`      // once per Generate (kept by Regenerate)
	BatchID         string `json:"batchId"`         // once per batch of slot requests
	RequestID       string `json:"requestId"`       // once per slot request
}

// Attachment is a reference the user attached to the prompt (a copied
// section as JSON, a section picked from a URL, ...). Only Type, Content,
// Label and Source are transmitted to generators; PreviewHTML and Metadata
// stay on the client side.
type Attachment struct {
	Type        string            `json:"type"`
	Content     string            `json:"content"`
	Label       string            `json:"label"`
	Source      string            `json:"source"`
	PreviewHTML string            `json:"previewHTML,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RequestAttachment is the stripped form of an Attachment sent with a request.
type RequestAttachment struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Label   string `json:"label"`
	Source  string `json:"source"`
}

// Strip drops everything a generator does not need.
func (a Attachment) Strip() RequestAttachment {
	return RequestAttachment{
		Type:    a.Type,
		Content: a.Content,
		Label:   a.Label,
		Source:  a.Source,
	}
}

// StripAttachments strips every attachment. It never returns nil so the
// wire form always carries an array.
func StripAttachments(attachments []Attachment) []RequestAttachment {
	out := make([]RequestAttachment, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, a.Strip())
	}
	return out
}

// BodyStyle captures the computed background of the editor preview body.
type BodyStyle struct {
	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage"`
}

// EditorContext is the snapshot of the editor sent along with each request so
// generated layouts blend into the page they are inserted into.
type EditorContext struct {
	Body BodyStyle `json:"body"`
}

// ContextProvider returns the current editor context snapshot. It is called
// once per batch.
type ContextProvider func() EditorContext

// StaticContext returns a ContextProvider that always yields ec.
func StaticContext(ec EditorContext) ContextProvider {
	return func() EditorContext { return ec }
}

// Request is the payload handed to a Generator for a single slot.
type Request struct {
	Prompt           string              `json:"prompt"`
	PrevGeneratedIDs []string            `json:"prevGeneratedIds"`
	CurrentContext   EditorContext       `json:"currentContext"`
	IDs              IDs                 `json:"ids"`
	Attachments      []RequestAttachment `json:"attachments"`

	// Slot is the lane index (0..N-1) within the batch. It is not part of the
	// wire payload.
	Slot int `json:"-"`
}
