package engine

import (
	"regexp"
	"strings"
)

// CopyableURL pairs the value shown in a read-only field with the value that
// is written to the clipboard.
type CopyableURL struct {
	Display string `json:"display"`
	Copy    string `json:"copy"`
}

var displayPrefix = regexp.MustCompile(`^(https?://)?(www\.)?`)

// WebhookURL is the live URL that starts the workflow.
func WebhookURL(baseURL, workspaceID, workflowID string) string {
	return strings.TrimRight(baseURL, "/") + "/webhooks/workflows/" + workspaceID + "/" + workflowID
}

// DisplayURL strips a leading scheme and "www." for display only.
func DisplayURL(url string) string {
	return displayPrefix.ReplaceAllString(url, "")
}

// LiveURL returns the webhook URL in both its display and copy forms.
func LiveURL(baseURL, workspaceID, workflowID string) CopyableURL {
	u := WebhookURL(baseURL, workspaceID, workflowID)
	return CopyableURL{Display: DisplayURL(u), Copy: u}
}

// OIDCAuthorizedURL is the origin the identity provider must allow.
func OIDCAuthorizedURL(frontOrigin string) string {
	return strings.TrimRight(frontOrigin, "/")
}

// OIDCRedirectionURL is the callback the identity provider redirects to.
func OIDCRedirectionURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/oidc/callback"
}
