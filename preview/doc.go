// Package preview renders generated layout markup to PNG screenshots with a
// headless Chromium driven by playwright-go.
package preview
