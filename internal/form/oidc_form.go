package form

import (
	"time"

	"trigger-settings/internal/engine"
	"trigger-settings/internal/metadata"
)

const oidcCopyToastDuration = 2 * time.Second

// OIDCForm backs the OIDC identity provider form.
type OIDCForm struct {
	urls        engine.OIDCURLs
	clipboard   Clipboard
	notifier    Notifier
	Credentials metadata.OIDCCredentials
}

func NewOIDCForm(urls engine.OIDCURLs, clipboard Clipboard, notifier Notifier) *OIDCForm {
	return &OIDCForm{urls: urls, clipboard: clipboard, notifier: notifier}
}

func (f *OIDCForm) AuthorizedURL() string  { return f.urls.AuthorizedURL }
func (f *OIDCForm) RedirectionURL() string { return f.urls.RedirectionURL }

func (f *OIDCForm) CopyAuthorizedURL() error {
	return f.copy(f.urls.AuthorizedURL, "Authorized URL copied to clipboard")
}

func (f *OIDCForm) CopyRedirectionURL() error {
	return f.copy(f.urls.RedirectionURL, "Redirect Url copied to clipboard")
}

// Validate returns the per-field errors of the current credentials.
func (f *OIDCForm) Validate() []metadata.FieldError {
	return f.Credentials.Normalize().Validate()
}

func (f *OIDCForm) copy(text, message string) error {
	f.notifier.Success(Notification{Message: message, Icon: IconCopy, Duration: oidcCopyToastDuration})
	return f.clipboard.WriteText(text)
}
