package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"portalgate/internal/role"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

// PostgresStore reads user_roles and profiles rows owned by the identity
// backend. It never writes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadRole(ctx context.Context, subjectID id.SubjectID) (role.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, uuid.UUID(subjectID))
	if err != nil {
		return role.None, translate(fmt.Errorf("query roles: %w", err))
	}
	defer rows.Close()

	var granted []role.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return role.None, fmt.Errorf("scan role: %w", err)
		}
		granted = append(granted, role.Parse(name))
	}
	if err := rows.Err(); err != nil {
		return role.None, translate(fmt.Errorf("iterate roles: %w", err))
	}
	return role.Strongest(granted), nil
}

func (s *PostgresStore) LoadUserType(ctx context.Context, subjectID id.SubjectID) (role.UserType, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT user_type FROM profiles WHERE id = $1`, uuid.UUID(subjectID)).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return role.UserTypeUnknown, sentinel.ErrNotFound
		}
		return role.UserTypeUnknown, translate(fmt.Errorf("query profile: %w", err))
	}
	return role.ParseUserType(name), nil
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "57":
			return errors.Join(sentinel.ErrUnavailable, err)
		}
	}
	return err
}
