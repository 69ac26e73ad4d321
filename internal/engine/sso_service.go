package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trigger-settings/internal/instrument"
	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
)

// OIDCURLs are the two URIs an administrator registers at the identity provider.
type OIDCURLs struct {
	AuthorizedURL  string `json:"authorized_url"`
	RedirectionURL string `json:"redirection_url"`
}

// SSOService manages the OIDC identity providers of a workspace.
type SSOService struct {
	providers   IdentityProviderStore
	recorder    instrument.Recorder
	baseURL     string
	frontOrigin string
}

func NewSSOService(providers IdentityProviderStore, recorder instrument.Recorder, baseURL, frontOrigin string) *SSOService {
	if recorder == nil {
		recorder = instrument.NoopRecorder{}
	}
	return &SSOService{providers: providers, recorder: recorder, baseURL: baseURL, frontOrigin: frontOrigin}
}

func (s *SSOService) URLs() OIDCURLs {
	return OIDCURLs{
		AuthorizedURL:  OIDCAuthorizedURL(s.frontOrigin),
		RedirectionURL: OIDCRedirectionURL(s.baseURL),
	}
}

func (s *SSOService) List(ctx context.Context, user *metadata.UserContext) ([]*metadata.IdentityProvider, error) {
	providers, err := s.providers.ListIdentityProviders(ctx, user.WorkspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "list identity providers")
	}
	return providers, nil
}

// CreateOIDC validates the credentials and stores a new active provider.
func (s *SSOService) CreateOIDC(ctx context.Context, user *metadata.UserContext, creds metadata.OIDCCredentials) (*metadata.IdentityProvider, error) {
	creds = creds.Normalize()
	if errs := creds.Validate(); len(errs) > 0 {
		return nil, ValidationFailedError(FieldErrorsToDetails(errs))
	}

	p := creds.IdentityProvider(user.WorkspaceID)
	if err := s.providers.CreateIdentityProvider(ctx, p); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, NewAppError("CONFLICT", 409, "An identity provider with this issuer already exists")
		}
		return nil, errors.Wrap(err, "create identity provider")
	}

	s.recorder.Record(ctx, instrument.Event{
		Action:      instrument.ActionIdentityProviderCreated,
		Entity:      "identity_provider",
		RecordID:    p.ID,
		UserID:      user.ID,
		WorkspaceID: user.WorkspaceID,
		Metadata:    map[string]any{"issuer": p.Issuer},
	})
	return p, nil
}

func (s *SSOService) Delete(ctx context.Context, user *metadata.UserContext, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NotFoundError("Identity provider", id)
	}
	err := s.providers.DeleteIdentityProvider(ctx, user.WorkspaceID, id)
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError("Identity provider", id)
	}
	if err != nil {
		return errors.Wrap(err, "delete identity provider")
	}
	s.recorder.Record(ctx, instrument.Event{
		Action:      instrument.ActionIdentityProviderDeleted,
		Entity:      "identity_provider",
		RecordID:    id,
		UserID:      user.ID,
		WorkspaceID: user.WorkspaceID,
	})
	return nil
}
