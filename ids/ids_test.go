package ids

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixes(t *testing.T) {
	cases := map[string]func() string{
		PrefixSession:  NewSessionID,
		PrefixGenerate: NewGenerateID,
		PrefixBatch:    NewBatchID,
		PrefixRequest:  NewRequestID,
		PrefixTemplate: NewTemplateID,
	}
	for prefix, fn := range cases {
		id := fn()
		assert.Truef(t, strings.HasPrefix(id, prefix), "%s has prefix %s", id, prefix)
		assert.NotEqual(t, id, fn())
	}
}

func TestEditorSessionID_StableAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	got := make([]string, 20)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = EditorSessionID()
		}(i)
	}
	wg.Wait()

	for _, id := range got {
		assert.Equal(t, got[0], id)
	}
	assert.True(t, strings.HasPrefix(got[0], PrefixEditorSession))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"hero":                  "hero",
		"Hero Section":          "hero-section",
		"../../x":               "x",
		"..\\evil/..//name.png": "evil-name-png",
		"  ":                    "",
		"Ünïcode_Layout--1":     "n-code-layout-1",
		strings.Repeat("a", 80): strings.Repeat("a", 40),
	}
	for in, want := range cases {
		assert.Equalf(t, want, Slug(in), "Slug(%q)", in)
	}
}

func TestNewLayoutID(t *testing.T) {
	a, b := NewLayoutID("hero"), NewLayoutID("hero")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "hero-"))

	assert.True(t, strings.HasPrefix(NewLayoutID("../.."), PrefixTemplate))
	assert.True(t, strings.HasPrefix(NewLayoutID(""), PrefixTemplate))
	assert.NotContains(t, NewLayoutID("../../etc/passwd"), "/")
}
