package metadata

import (
	"net/url"
	"strings"
)

// IdentityProviderType is the SSO protocol of an identity provider.
type IdentityProviderType string

const IdentityProviderOIDC IdentityProviderType = "OIDC"

// IdentityProviderStatus tracks whether an identity provider may be used to log in.
type IdentityProviderStatus string

const (
	IdentityProviderActive   IdentityProviderStatus = "Active"
	IdentityProviderInactive IdentityProviderStatus = "Inactive"
)

// IdentityProvider is an SSO connection configured for a workspace.
// ClientSecret is never serialized.
type IdentityProvider struct {
	ID           string                 `json:"id"`
	WorkspaceID  string                 `json:"workspace_id"`
	Name         string                 `json:"name"`
	Type         IdentityProviderType   `json:"type"`
	ClientID     string                 `json:"client_id"`
	ClientSecret string                 `json:"-"`
	Issuer       string                 `json:"issuer"`
	Status       IdentityProviderStatus `json:"status"`
}

// OIDCCredentials is the identity-provider section of the OIDC form.
type OIDCCredentials struct {
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Issuer       string `json:"issuer"`
}

// FieldError is a validation message attached to a single form field.
type FieldError struct {
	Field   string
	Message string
}

// Normalize trims surrounding whitespace and a trailing slash on the issuer.
func (c OIDCCredentials) Normalize() OIDCCredentials {
	c.Name = strings.TrimSpace(c.Name)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.Issuer = strings.TrimRight(strings.TrimSpace(c.Issuer), "/")
	return c
}

// Validate checks the credentials are complete and the issuer is an absolute
// http(s) URL.
func (c OIDCCredentials) Validate() []FieldError {
	var errs []FieldError
	if c.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}
	if c.ClientID == "" {
		errs = append(errs, FieldError{Field: "client_id", Message: "Client ID is required"})
	}
	if c.ClientSecret == "" {
		errs = append(errs, FieldError{Field: "client_secret", Message: "Client Secret is required"})
	}
	if c.Issuer == "" {
		errs = append(errs, FieldError{Field: "issuer", Message: "Issuer URI is required"})
	} else if u, err := url.Parse(c.Issuer); err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		errs = append(errs, FieldError{Field: "issuer", Message: "Issuer URI must be an absolute http(s) URL"})
	}
	return errs
}

// IdentityProvider builds a new active OIDC provider from the credentials.
func (c OIDCCredentials) IdentityProvider(workspaceID string) *IdentityProvider {
	return &IdentityProvider{
		WorkspaceID:  workspaceID,
		Name:         c.Name,
		Type:         IdentityProviderOIDC,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Issuer:       c.Issuer,
		Status:       IdentityProviderActive,
	}
}
