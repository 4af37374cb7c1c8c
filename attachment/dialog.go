package attachment

import (
	"errors"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/logging"
)

// Message types exchanged with the element-selector app.
const (
	MessageClose        = "element-selector/close"
	MessageLoaded       = "element-selector/loaded"
	MessageAttach       = "element-selector/attach"
	MessageReferrerInfo = "referrer/info"
)

// DefaultLoadTimeout is how long the app gets to send MessageLoaded.
const DefaultLoadTimeout = 10 * time.Second

// User facing alerts.
const (
	AlertUnavailable   = "The app is not available. Please try again later."
	AlertNotResponding = "The app is not responding. Please try again later."
)

var (
	// ErrOriginMismatch is returned for messages that do not come from the
	// iframe origin. Such messages are ignored.
	ErrOriginMismatch = errors.New("message origin does not match iframe origin")

	// ErrUnavailable is returned when no iframe source is configured.
	ErrUnavailable = errors.New(AlertUnavailable)

	// ErrClosed is returned for messages handled after the dialog closed.
	ErrClosed = errors.New("dialog closed")

	// ErrTimedOut is returned for messages handled after the load timeout.
	ErrTimedOut = errors.New(AlertNotResponding)

	// ErrUnknownMessage is returned for message types the dialog ignores.
	ErrUnknownMessage = errors.New("unknown message type")
)

// Message is a postMessage event received from the iframe.
type Message struct {
	Origin string `json:"-"`
	Type   string `json:"type"`
	HTML   string `json:"html,omitempty"`
	URL    string `json:"url,omitempty"`
}

// PageInfo describes the editor page.
type PageInfo struct {
	URL string `json:"url"`
}

// ReferrerDetails is the payload of a referrer/info message.
type ReferrerDetails struct {
	Page      PageInfo `json:"page"`
	AuthToken string   `json:"authToken"`
}

// ReferrerInfo is posted to the iframe once it loaded.
type ReferrerInfo struct {
	Type string          `json:"type"`
	Info ReferrerDetails `json:"info"`
}

// DialogOptions configure a Dialog.
type DialogOptions struct {
	LoadTimeout time.Duration
	// OnAttach receives the picked attachments.
	OnAttach func([]core.Attachment)
	// OnClose is called once when the dialog closes.
	OnClose func()
	// OnTimeout is called once when the app did not load in time.
	OnTimeout func()
	// Policy sanitises the preview markup. The transmitted content is kept.
	Policy *bluemonday.Policy
	Logger logging.Logger
}

// Dialog is the editor side of the element-selector channel.
type Dialog struct {
	source string
	origin string
	opts   DialogOptions

	mu       sync.Mutex
	timer    *time.Timer
	loaded   bool
	timedOut bool
	closed   bool
}

// NewDialog creates a dialog for the iframe at source and starts the load
// timeout. An empty source yields ErrUnavailable.
func NewDialog(source string, optFns ...func(o *DialogOptions)) (*Dialog, error) {
	opts := DialogOptions{
		LoadTimeout: DefaultLoadTimeout,
		Policy:      bluemonday.UGCPolicy(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	if source == "" {
		return nil, ErrUnavailable
	}
	origin := Origin(source)
	if origin == "" {
		return nil, ErrUnavailable
	}

	d := &Dialog{source: source, origin: origin, opts: opts}
	d.timer = time.AfterFunc(opts.LoadTimeout, d.expire)
	return d, nil
}

// Source returns the iframe source url.
func (d *Dialog) Source() string { return d.source }

// Origin returns the origin messages must come from.
func (d *Dialog) Origin() string { return d.origin }

// ReferrerInfo builds the message posted to the iframe after it loaded.
func (d *Dialog) ReferrerInfo(pageURL, authToken string) ReferrerInfo {
	return ReferrerInfo{
		Type: MessageReferrerInfo,
		Info: ReferrerDetails{Page: PageInfo{URL: pageURL}, AuthToken: authToken},
	}
}

// Handle processes one message from the iframe.
func (d *Dialog) Handle(msg Message) error {
	if msg.Origin != d.origin {
		d.opts.Logger.Debug("Ignoring message from foreign origin", "origin", msg.Origin, "expected", d.origin)
		return ErrOriginMismatch
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}

	switch msg.Type {
	case MessageClose:
		d.closeLocked()
		d.mu.Unlock()
		if d.opts.OnClose != nil {
			d.opts.OnClose()
		}
		return nil
	case MessageLoaded:
		if !d.timedOut {
			d.loaded = true
			d.timer.Stop()
		}
		d.mu.Unlock()
		return nil
	case MessageAttach:
		if d.timedOut {
			d.mu.Unlock()
			return ErrTimedOut
		}
		d.mu.Unlock()
		a := FromURL(msg.HTML, msg.URL)
		if d.opts.Policy != nil {
			a.PreviewHTML = d.opts.Policy.Sanitize(a.PreviewHTML)
		}
		if d.opts.OnAttach != nil {
			d.opts.OnAttach([]core.Attachment{a})
		}
		return nil
	default:
		d.mu.Unlock()
		return ErrUnknownMessage
	}
}

// Loaded reports whether the app announced itself.
func (d *Dialog) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// TimedOut reports whether the load timeout elapsed before MessageLoaded.
func (d *Dialog) TimedOut() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timedOut
}

// Closed reports whether the dialog closed.
func (d *Dialog) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close closes the dialog from the editor side.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closeLocked()
	d.mu.Unlock()
	if d.opts.OnClose != nil {
		d.opts.OnClose()
	}
}

func (d *Dialog) closeLocked() {
	d.closed = true
	d.timer.Stop()
}

func (d *Dialog) expire() {
	d.mu.Lock()
	if d.loaded || d.closed {
		d.mu.Unlock()
		return
	}
	d.timedOut = true
	d.mu.Unlock()

	d.opts.Logger.Warn("Element selector did not load in time", "source", d.source, "timeout", d.opts.LoadTimeout)
	if d.opts.OnTimeout != nil {
		d.opts.OnTimeout()
	}
}
