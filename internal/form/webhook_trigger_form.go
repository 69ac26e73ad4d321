package form

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/engine"
	"trigger-settings/internal/metadata"
)

// CopyDebounce is how long CopyLiveURL waits for further calls before copying.
const CopyDebounce = 200 * time.Millisecond

// UpdateFunc receives every accepted trigger edit.
type UpdateFunc func(t metadata.WebhookTrigger, opts engine.UpdateOptions)

// WebhookTriggerConfig configures a WebhookTriggerForm. OnTriggerUpdate is
// ignored when Readonly is set. A zero CopyDebounce means the default.
type WebhookTriggerConfig struct {
	Trigger         metadata.WebhookTrigger
	Readonly        bool
	OnTriggerUpdate UpdateFunc
	LiveURL         engine.CopyableURL
	Clipboard       Clipboard
	Notifier        Notifier
	CopyDebounce    time.Duration
}

// WebhookTriggerForm holds the editing state of a webhook trigger panel.
type WebhookTriggerForm struct {
	mu            sync.Mutex
	trigger       metadata.WebhookTrigger
	readonly      bool
	onUpdate      UpdateFunc
	liveURL       engine.CopyableURL
	clipboard     Clipboard
	notifier      Notifier
	debounce      time.Duration
	copyTimer     *time.Timer
	bodyText      string
	errors        map[string]string
	errorsVisible bool
}

func NewWebhookTriggerForm(cfg WebhookTriggerConfig) *WebhookTriggerForm {
	f := &WebhookTriggerForm{
		trigger:   cfg.Trigger,
		readonly:  cfg.Readonly || cfg.OnTriggerUpdate == nil,
		onUpdate:  cfg.OnTriggerUpdate,
		liveURL:   cfg.LiveURL,
		clipboard: cfg.Clipboard,
		notifier:  cfg.Notifier,
		debounce:  cfg.CopyDebounce,
		errors:    make(map[string]string),
	}
	if f.debounce <= 0 {
		f.debounce = CopyDebounce
	}
	f.resetBodyText()
	return f
}

func (f *WebhookTriggerForm) resetBodyText() {
	f.bodyText = ""
	if post, ok := f.trigger.Settings.(metadata.PostSettings); ok {
		f.bodyText = post.ExpectedBodyText()
	}
}

// Trigger returns the last accepted trigger.
func (f *WebhookTriggerForm) Trigger() metadata.WebhookTrigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trigger
}

func (f *WebhookTriggerForm) Readonly() bool {
	return f.readonly
}

// Title is the header title: the trigger name or the default label.
func (f *WebhookTriggerForm) Title() string {
	return engine.DefaultLabel(f.Trigger())
}

// LiveURL returns the webhook URL; Display goes in the read-only field.
func (f *WebhookTriggerForm) LiveURL() engine.CopyableURL {
	return f.liveURL
}

// ShowsExpectedBody reports whether the expected body editor is shown.
func (f *WebhookTriggerForm) ShowsExpectedBody() bool {
	_, ok := f.Trigger().Settings.(metadata.PostSettings)
	return ok
}

// ExpectedBodyText is the current editor text, including rejected input.
func (f *WebhookTriggerForm) ExpectedBodyText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodyText
}

// Error returns the message for field, but only once the field was blurred.
func (f *WebhookTriggerForm) Error(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.errorsVisible {
		return ""
	}
	return f.errors[field]
}

// Blur makes error messages visible.
func (f *WebhookTriggerForm) Blur() {
	f.mu.Lock()
	f.errorsVisible = true
	f.mu.Unlock()
}

func (f *WebhookTriggerForm) SetName(name string) {
	if f.readonly {
		return
	}
	f.mu.Lock()
	next := engine.ChangeName(f.trigger, name)
	f.trigger = next
	f.mu.Unlock()
	f.onUpdate(next, engine.DefaultUpdateOptions)
}

func (f *WebhookTriggerForm) SetHTTPMethod(m metadata.HTTPMethod) {
	if f.readonly {
		return
	}
	f.mu.Lock()
	next, opts := engine.ChangeHTTPMethod(f.trigger, m)
	f.trigger = next
	delete(f.errors, engine.ExpectedBodyField)
	f.resetBodyText()
	f.mu.Unlock()
	f.onUpdate(next, opts)
}

// SetExpectedBody handles a keystroke in the expected body editor. Invalid
// text sets the field error and leaves the trigger unchanged.
func (f *WebhookTriggerForm) SetExpectedBody(text string) {
	if f.readonly {
		return
	}
	f.mu.Lock()
	f.bodyText = text
	next, opts, err := engine.ChangeExpectedBody(f.trigger, text)
	if err != nil {
		var vErr *engine.ValidationError
		if errors.As(err, &vErr) {
			f.errors[vErr.Field] = vErr.Message
		}
		f.mu.Unlock()
		return
	}
	delete(f.errors, engine.ExpectedBodyField)
	f.trigger = next
	f.mu.Unlock()
	f.onUpdate(next, opts)
}

// SetAuthentication returns the trigger with the new authentication. It is
// only committed when authentication is editable.
func (f *WebhookTriggerForm) SetAuthentication(a metadata.Authentication) metadata.WebhookTrigger {
	f.mu.Lock()
	next := engine.ChangeAuthentication(f.trigger, a)
	if f.readonly || !engine.AuthenticationEditable {
		f.mu.Unlock()
		return next
	}
	f.trigger = next
	f.mu.Unlock()
	f.onUpdate(next, engine.DefaultUpdateOptions)
	return next
}

// CopyLiveURL copies the full live URL once calls stop for the debounce
// interval, then confirms with a toast.
func (f *WebhookTriggerForm) CopyLiveURL() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyTimer != nil {
		f.copyTimer.Stop()
	}
	f.copyTimer = time.AfterFunc(f.debounce, f.copyNow)
}

func (f *WebhookTriggerForm) copyNow() {
	if f.clipboard == nil {
		return
	}
	if err := f.clipboard.WriteText(f.liveURL.Copy); err != nil {
		log.WithError(err).Warn("copy live url")
		return
	}
	if f.notifier != nil {
		f.notifier.Success(Notification{Message: "Copied to clipboard!", Icon: IconCopy})
	}
}

// Close cancels a pending copy.
func (f *WebhookTriggerForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyTimer != nil {
		f.copyTimer.Stop()
	}
}
