package attachment

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/layoutgen/core"
)

const selectorSource = "https://selector.example.com/app?target=https%3A%2F%2Fexample.com"

func TestNewDialog_Unavailable(t *testing.T) {
	_, err := NewDialog("")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualError(t, err, AlertUnavailable)

	_, err = NewDialog("relative/path")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDialog_Attach(t *testing.T) {
	var (
		mu  sync.Mutex
		got []core.Attachment
	)
	d, err := NewDialog(selectorSource, func(o *DialogOptions) {
		o.OnAttach = func(a []core.Attachment) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, a...)
		}
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "https://selector.example.com", d.Origin())

	err = d.Handle(Message{
		Origin: "https://selector.example.com",
		Type:   MessageAttach,
		HTML:   `<section onclick="x()">Hi</section>`,
		URL:    "https://example.com/pricing",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, TypeURL, got[0].Type)
	assert.Equal(t, "example.com", got[0].Label)
	assert.Equal(t, SourceUserURL, got[0].Source)
	assert.Equal(t, `<section onclick="x()">Hi</section>`, got[0].Content)
	assert.NotContains(t, got[0].PreviewHTML, "onclick")
}

func TestDialog_IgnoresForeignOrigin(t *testing.T) {
	called := false
	d, err := NewDialog(selectorSource, func(o *DialogOptions) {
		o.OnAttach = func([]core.Attachment) { called = true }
		o.OnClose = func() { called = true }
	})
	require.NoError(t, err)
	defer d.Close()

	for _, typ := range []string{MessageAttach, MessageClose, MessageLoaded} {
		err := d.Handle(Message{Origin: "https://evil.example.com", Type: typ})
		assert.ErrorIs(t, err, ErrOriginMismatch)
	}
	assert.False(t, called)
	assert.False(t, d.Loaded())
	assert.False(t, d.Closed())
}

func TestDialog_Close(t *testing.T) {
	var closes atomic.Int32
	d, err := NewDialog(selectorSource, func(o *DialogOptions) {
		o.OnClose = func() { closes.Add(1) }
	})
	require.NoError(t, err)

	require.NoError(t, d.Handle(Message{Origin: d.Origin(), Type: MessageClose}))
	assert.True(t, d.Closed())
	assert.ErrorIs(t, d.Handle(Message{Origin: d.Origin(), Type: MessageAttach}), ErrClosed)

	d.Close()
	assert.Equal(t, int32(1), closes.Load())
}

func TestDialog_LoadedStopsTimeout(t *testing.T) {
	var timeouts atomic.Int32
	d, err := NewDialog(selectorSource, func(o *DialogOptions) {
		o.LoadTimeout = 30 * time.Millisecond
		o.OnTimeout = func() { timeouts.Add(1) }
	})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Handle(Message{Origin: d.Origin(), Type: MessageLoaded}))
	time.Sleep(60 * time.Millisecond)

	assert.True(t, d.Loaded())
	assert.False(t, d.TimedOut())
	assert.Zero(t, timeouts.Load())
}

func TestDialog_Timeout(t *testing.T) {
	var timeouts atomic.Int32
	d, err := NewDialog(selectorSource, func(o *DialogOptions) {
		o.LoadTimeout = 10 * time.Millisecond
		o.OnTimeout = func() { timeouts.Add(1) }
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Eventually(t, func() bool { return timeouts.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, d.TimedOut())

	err = d.Handle(Message{Origin: d.Origin(), Type: MessageAttach, HTML: "<p/>"})
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.EqualError(t, err, AlertNotResponding)

	require.NoError(t, d.Handle(Message{Origin: d.Origin(), Type: MessageLoaded}))
	assert.False(t, d.Loaded())
}

func TestDialog_UnknownMessage(t *testing.T) {
	d, err := NewDialog(selectorSource)
	require.NoError(t, err)
	defer d.Close()

	assert.ErrorIs(t, d.Handle(Message{Origin: d.Origin(), Type: "element-selector/other"}), ErrUnknownMessage)
}

func TestDialog_ReferrerInfo(t *testing.T) {
	d, err := NewDialog(selectorSource)
	require.NoError(t, err)
	defer d.Close()

	info := d.ReferrerInfo("https://site.example.com/wp-admin/post.php", "token")
	assert.Equal(t, MessageReferrerInfo, info.Type)
	assert.Equal(t, "https://site.example.com/wp-admin/post.php", info.Info.Page.URL)
	assert.Equal(t, "token", info.Info.AuthToken)
}
