package prompt

import "github.com/hupe1980/layoutgen/core"

// Suggestion is an autocomplete entry. [topic] marks the spot the user is
// expected to fill in.
type Suggestion struct {
	Text string `json:"text" yaml:"text"`
}

// DefaultSuggestions are offered when nothing type specific is attached.
var DefaultSuggestions = []Suggestion{
	{Text: "Services section with list layout, icons, and service descriptions for [topic]"},
	{Text: "Accordion-style FAQ block with clickable questions about [topic]"},
	{Text: "Hero section with image, heading, subheading, and CTA button about [topic]"},
	{Text: "Full-width call-to-action with background image and overlay text about [topic]"},
	{Text: "Carousel testimonial block with user images, names, and feedback about [topic]"},
	{Text: "Features block showcasing feature title and brief description about [topic]"},
	{Text: "Multi-column minimalistic About Us section with icons for [topic]"},
	{Text: "Section with contact form and social media icons for [topic]"},
	{Text: "Statistics display in a 3-column layout with numbers and icons for [topic]"},
	{Text: "Pricing table section with highlighted option for [topic]"},
	{Text: "About Us section combining company history and values for [topic]"},
}

// VariationSuggestions restyle an attached section.
var VariationSuggestions = []Suggestion{
	{Text: "Minimalist design with bold typography about"},
	{Text: "Elegant style with serif fonts discussing"},
	{Text: "Retro vibe with muted colors and classic fonts about"},
	{Text: "Futuristic design with neon accents about"},
	{Text: "Professional look with clean lines for"},
	{Text: "Earthy tones and organic shapes featuring"},
	{Text: "Luxurious theme with rich colors discussing"},
	{Text: "Tech-inspired style with modern fonts about"},
	{Text: "Warm hues with comforting visuals about"},
}

const (
	// DefaultPlaceholder is shown without attachments.
	DefaultPlaceholder = "Press '/' for suggested prompts or describe the layout you want to create"
	// VariationPlaceholder is shown when a section is attached.
	VariationPlaceholder = "Press '/' for suggestions or describe the changes you want to apply (optional)..."
)

// TypeConfig overrides suggestions and placeholder for one attachment type.
// Empty fields fall back to the defaults.
type TypeConfig struct {
	Suggestions []Suggestion `json:"promptSuggestions,omitempty" yaml:"suggestions"`
	Placeholder string       `json:"promptPlaceholder,omitempty" yaml:"placeholder"`
}

// Types maps an attachment type to its configuration.
type Types map[string]TypeConfig

// DefaultTypes configures json and url attachments for variations.
func DefaultTypes() Types {
	return Types{
		"json": {Suggestions: VariationSuggestions, Placeholder: VariationPlaceholder},
		"url":  {Suggestions: VariationSuggestions, Placeholder: VariationPlaceholder},
	}
}

// For returns the suggestions and placeholder for the given attachments.
// Only the first attachment's type is considered.
func (t Types) For(attachments []core.Attachment) ([]Suggestion, string) {
	var cfg TypeConfig
	if len(attachments) > 0 {
		cfg = t[attachments[0].Type]
	}

	suggestions := cfg.Suggestions
	if len(suggestions) == 0 {
		suggestions = DefaultSuggestions
	}
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return suggestions, placeholder
}
