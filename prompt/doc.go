// Package prompt holds the input rules of the layout prompt form: which
// suggestions and placeholder to offer for the current attachments, when the
// form may submit, and the edit/back memory of the previous prompt.
package prompt
