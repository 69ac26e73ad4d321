package store

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultWorkspaceID is assigned to the seeded admin user.
const DefaultWorkspaceID = "00000000-0000-0000-0000-000000000001"

// Bootstrap creates the system tables and seeds an admin user on an empty database.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return errors.Wrap(err, "bootstrap system tables")
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return errors.Wrap(err, "seed admin user")
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM _users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pb := s.Dialect.NewParamBuilder()
	cols := "email, password_hash, roles, workspace_id"
	vals := pb.Add("admin@localhost") + ", " + pb.Add(string(hash)) + ", " +
		pb.Add(s.Dialect.ArrayParam([]string{"admin"})) + ", " + pb.Add(DefaultWorkspaceID)
	if s.Dialect.UUIDDefault() == "" {
		cols = "id, " + cols
		vals = pb.Add(GenerateUUID()) + ", " + vals
	}

	if _, err := s.DB.ExecContext(ctx,
		"INSERT INTO _users ("+cols+") VALUES ("+vals+")", pb.Params()...); err != nil {
		return err
	}

	log.WithField("email", "admin@localhost").
		Warn("default admin user created with password 'changeme', change it immediately")
	return nil
}
