package prompt

import "github.com/hupe1980/layoutgen/core"

// IsInputEmpty reports whether there is nothing to generate from.
func IsInputEmpty(prompt string, attachments []core.Attachment) bool {
	return prompt == "" && len(attachments) == 0
}

// Validate returns core.ErrEmptyInput when the input is empty.
func Validate(prompt string, attachments []core.Attachment) error {
	if IsInputEmpty(prompt, attachments) {
		return core.ErrEmptyInput
	}
	return nil
}

// Form is the state of the prompt form. It is not safe for concurrent use.
type Form struct {
	Prompt      string
	Attachments []core.Attachment

	// IsActive is false while results are shown and the prompt is frozen.
	IsActive    bool
	IsLoading   bool
	IsEnhancing bool

	types    Types
	previous string
}

// NewForm returns an active, empty form.
func NewForm(types Types) *Form {
	if types == nil {
		types = DefaultTypes()
	}
	return &Form{IsActive: true, types: types}
}

// InputDisabled reports whether the prompt and attachments are locked.
func (f *Form) InputDisabled() bool {
	return f.IsLoading || f.IsEnhancing || !f.IsActive
}

// GenerateDisabled reports whether submitting is blocked.
func (f *Form) GenerateDisabled() bool {
	return f.InputDisabled() || IsInputEmpty(f.Prompt, f.Attachments)
}

// EnhanceDisabled reports whether the prompt enhancer is blocked. It needs
// prompt text, an attachment alone is not enough.
func (f *Form) EnhanceDisabled() bool {
	return f.GenerateDisabled() || f.Prompt == ""
}

// BackDisabled reports whether the back action is blocked.
func (f *Form) BackDisabled() bool { return f.IsLoading || f.IsEnhancing }

// EditDisabled reports whether the edit action is blocked.
func (f *Form) EditDisabled() bool { return f.IsLoading }

// Suggestions returns the autocomplete entries for the current attachments.
func (f *Form) Suggestions() []Suggestion {
	s, _ := f.types.For(f.Attachments)
	return s
}

// Placeholder returns the input placeholder for the current attachments.
func (f *Form) Placeholder() string {
	_, p := f.types.For(f.Attachments)
	return p
}

// ApplySuggestion replaces the prompt with the suggestion text followed by
// a space so the user can continue typing.
func (f *Form) ApplySuggestion(s Suggestion) {
	f.Prompt = s.Text + " "
}

// Edit remembers the current prompt and reactivates the form.
func (f *Form) Edit() {
	f.previous = f.Prompt
	f.IsActive = true
}

// Back restores the prompt remembered by Edit and deactivates the form.
func (f *Form) Back() {
	f.Prompt = f.previous
	f.IsActive = false
}

// Submit returns the input to generate from.
func (f *Form) Submit() (string, []core.Attachment, error) {
	if err := Validate(f.Prompt, f.Attachments); err != nil {
		return "", nil, err
	}
	return f.Prompt, f.Attachments, nil
}

// Attach adds attachments.
func (f *Form) Attach(attachments ...core.Attachment) {
	f.Attachments = append(f.Attachments, attachments...)
}

// Detach removes all attachments.
func (f *Form) Detach() {
	f.Attachments = nil
}
