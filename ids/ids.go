// Package ids mints the opaque identifiers attached to generation requests.
// Every id is a uuid with a scope prefix so ids from different scopes are
// never confused in logs or downstream analytics.
package ids

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	PrefixEditorSession = "editor-session-"
	PrefixSession       = "session-"
	PrefixGenerate      = "generate-"
	PrefixBatch         = "batch-"
	PrefixRequest       = "request-"
	PrefixTemplate      = "template-"
)

var (
	editorSessionOnce sync.Once
	editorSessionID   string
)

// Unique returns a fresh unique id without prefix.
func Unique() string { return uuid.New().String() }

// EditorSessionID returns the process-wide editor session id. It is minted on
// first use and stays stable for the life of the process.
func EditorSessionID() string {
	editorSessionOnce.Do(func() {
		editorSessionID = PrefixEditorSession + Unique()
	})
	return editorSessionID
}

// NewSessionID mints an id for a panel open.
func NewSessionID() string { return PrefixSession + Unique() }

// NewGenerateID mints an id for a Generate call.
func NewGenerateID() string { return PrefixGenerate + Unique() }

// NewBatchID mints an id for a batch of slot requests.
func NewBatchID() string { return PrefixBatch + Unique() }

// NewRequestID mints an id for a single slot request.
func NewRequestID() string { return PrefixRequest + Unique() }

// NewTemplateID mints a fallback base template id for layouts that came back
// without one.
func NewTemplateID() string { return PrefixTemplate + Unique() }

// maxSlugLen bounds the model supplied part of a layout id.
const maxSlugLen = 40

// Slug reduces s to lowercase ASCII letters, digits and single dashes so it
// is safe as a file name or storage key segment. It returns "" when nothing
// usable is left.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return b.String()
}

// NewLayoutID mints a layout id for one slot request. The model's own id is
// only a hint: it is slugged and suffixed with a fresh uuid, so sibling slots
// answering with the same id still get distinct, path safe ids.
func NewLayoutID(hint string) string {
	slug := Slug(hint)
	if slug == "" {
		return NewTemplateID()
	}
	return slug + "-" + Unique()
}
