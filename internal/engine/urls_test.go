package engine

import (
	"strings"
	"testing"
)

func TestLiveURL_DisplayAndCopy(t *testing.T) {
	u := LiveURL("https://www.example.com", "ws1", "wf1")

	if u.Display != "example.com/webhooks/workflows/ws1/wf1" {
		t.Errorf("display = %q", u.Display)
	}
	if !strings.HasPrefix(u.Copy, "https://www.") {
		t.Errorf("copy value lost its scheme: %q", u.Copy)
	}
	if u.Copy != "https://www.example.com/webhooks/workflows/ws1/wf1" {
		t.Errorf("copy = %q", u.Copy)
	}
}

func TestDisplayURL(t *testing.T) {
	tests := map[string]string{
		"http://api.example.com/x":  "api.example.com/x",
		"https://www.example.com/x": "example.com/x",
		"www.example.com":           "example.com",
		"example.com/www.x":         "example.com/www.x",
		"ftp://example.com":         "ftp://example.com",
	}
	for in, want := range tests {
		if got := DisplayURL(in); got != want {
			t.Errorf("DisplayURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWebhookURL_TrailingSlash(t *testing.T) {
	got := WebhookURL("http://localhost:3000/", "ws", "wf")
	if got != "http://localhost:3000/webhooks/workflows/ws/wf" {
		t.Fatalf("got %q", got)
	}
}

func TestOIDCURLs(t *testing.T) {
	if got := OIDCAuthorizedURL("https://app.example.com/"); got != "https://app.example.com" {
		t.Errorf("authorized = %q", got)
	}
	if got := OIDCRedirectionURL("https://api.example.com"); got != "https://api.example.com/auth/oidc/callback" {
		t.Errorf("redirection = %q", got)
	}
}
