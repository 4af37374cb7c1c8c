package attachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/hupe1980/layoutgen/core"
)

const (
	// TypeJSON marks a copied editor section.
	TypeJSON = "json"
	// TypeURL marks a section picked from a web page.
	TypeURL = "url"

	// SourceUserURL is the source of attachments picked from a user URL.
	SourceUserURL = "user-url"
)

// FromURL builds the attachment for markup picked from pageURL. The label is
// the page host, or empty when pageURL is empty or unparsable.
func FromURL(html, pageURL string) core.Attachment {
	return core.Attachment{
		Type:        TypeURL,
		PreviewHTML: html,
		Content:     html,
		Label:       Host(pageURL),
		Source:      SourceUserURL,
	}
}

// FromJSON builds the attachment for a copied section. When r is not nil
// the section markup is rendered and the preview becomes an inline image.
func FromJSON(ctx context.Context, content, label, html string, r core.Renderer) (core.Attachment, error) {
	a := core.Attachment{
		Type:    TypeJSON,
		Content: content,
		Label:   label,
	}
	if r == nil || html == "" {
		return a, nil
	}

	png, err := r.Render(ctx, html, core.EditorContext{})
	if err != nil {
		return core.Attachment{}, fmt.Errorf("render attachment preview: %w", err)
	}
	a.PreviewHTML = fmt.Sprintf(`<img src="data:image/png;base64,%s" />`, base64.StdEncoding.EncodeToString(png))
	return a, nil
}

// Host returns the host (with port) of rawURL or "".
func Host(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Origin returns scheme://host of rawURL or "".
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
