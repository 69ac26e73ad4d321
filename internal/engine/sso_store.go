package engine

import (
	"context"
	"fmt"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
)

// IdentityProviderStore persists the SSO connections of a workspace.
type IdentityProviderStore interface {
	ListIdentityProviders(ctx context.Context, workspaceID string) ([]*metadata.IdentityProvider, error)
	CreateIdentityProvider(ctx context.Context, p *metadata.IdentityProvider) error
	DeleteIdentityProvider(ctx context.Context, workspaceID, id string) error
}

// SQLIdentityProviderStore implements IdentityProviderStore against _sso_identity_providers.
type SQLIdentityProviderStore struct {
	store *store.Store
}

func NewSQLIdentityProviderStore(s *store.Store) *SQLIdentityProviderStore {
	return &SQLIdentityProviderStore{store: s}
}

func (s *SQLIdentityProviderStore) ListIdentityProviders(ctx context.Context, workspaceID string) ([]*metadata.IdentityProvider, error) {
	rows, err := store.QueryRows(ctx, s.store.DB,
		fmt.Sprintf(`SELECT id, workspace_id, name, type, client_id, client_secret, issuer, status
		 FROM _sso_identity_providers WHERE workspace_id = %s ORDER BY created_at, name`,
			s.store.Dialect.Placeholder(1)), workspaceID)
	if err != nil {
		return nil, err
	}

	providers := make([]*metadata.IdentityProvider, 0, len(rows))
	for _, row := range rows {
		providers = append(providers, &metadata.IdentityProvider{
			ID:           store.AsString(row["id"]),
			WorkspaceID:  store.AsString(row["workspace_id"]),
			Name:         store.AsString(row["name"]),
			Type:         metadata.IdentityProviderType(store.AsString(row["type"])),
			ClientID:     store.AsString(row["client_id"]),
			ClientSecret: store.AsString(row["client_secret"]),
			Issuer:       store.AsString(row["issuer"]),
			Status:       metadata.IdentityProviderStatus(store.AsString(row["status"])),
		})
	}
	return providers, nil
}

func (s *SQLIdentityProviderStore) CreateIdentityProvider(ctx context.Context, p *metadata.IdentityProvider) error {
	d := s.store.Dialect
	if p.ID == "" {
		p.ID = store.GenerateUUID()
	}
	pb := d.NewParamBuilder()
	_, err := store.Exec(ctx, s.store.DB,
		fmt.Sprintf(`INSERT INTO _sso_identity_providers (id, workspace_id, name, type, client_id, client_secret, issuer, status)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(p.ID), pb.Add(p.WorkspaceID), pb.Add(p.Name), pb.Add(string(p.Type)),
			pb.Add(p.ClientID), pb.Add(p.ClientSecret), pb.Add(p.Issuer), pb.Add(string(p.Status))),
		pb.Params()...)
	return store.MapError(d, err)
}

func (s *SQLIdentityProviderStore) DeleteIdentityProvider(ctx context.Context, workspaceID, id string) error {
	pb := s.store.Dialect.NewParamBuilder()
	n, err := store.Exec(ctx, s.store.DB,
		fmt.Sprintf(`DELETE FROM _sso_identity_providers WHERE id = %s AND workspace_id = %s`,
			pb.Add(id), pb.Add(workspaceID)),
		pb.Params()...)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
