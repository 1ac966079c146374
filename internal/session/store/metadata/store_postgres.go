package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

// PostgresStore persists metadata in the session_metadata table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create upserts the subject's record; a new sign-in replaces the old one.
func (s *PostgresStore) Create(ctx context.Context, meta *models.Metadata) error {
	query := `
		INSERT INTO session_metadata (subject_id, namespace, handle_id, device, session_created_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject_id) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			handle_id = EXCLUDED.handle_id,
			device = EXCLUDED.device,
			session_created_at = EXCLUDED.session_created_at,
			last_activity_at = EXCLUDED.last_activity_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(meta.SubjectID),
		meta.Namespace.String(),
		uuid.UUID(meta.Handle),
		meta.Device,
		meta.SessionCreatedAt,
		meta.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("create session metadata: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, subjectID id.SubjectID) (*models.Metadata, error) {
	query := `
		SELECT subject_id, namespace, handle_id, device, session_created_at, last_activity_at
		FROM session_metadata
		WHERE subject_id = $1
	`
	meta, err := scanMetadata(s.db.QueryRowContext(ctx, query, uuid.UUID(subjectID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session metadata: %w", translate(err))
	}
	return meta, nil
}

// Touch records activity. Concurrent touches from several tabs race and the
// last write wins.
func (s *PostgresStore) Touch(ctx context.Context, subjectID id.SubjectID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_metadata SET last_activity_at = $2 WHERE subject_id = $1`,
		uuid.UUID(subjectID), at,
	)
	if err != nil {
		return fmt.Errorf("touch session metadata: %w", translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, subjectID id.SubjectID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_metadata WHERE subject_id = $1`, uuid.UUID(subjectID))
	if err != nil {
		return fmt.Errorf("delete session metadata: %w", translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_id, namespace, handle_id, device, session_created_at, last_activity_at
		FROM session_metadata
		ORDER BY last_activity_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list session metadata: %w", translate(err))
	}
	defer rows.Close()

	var out []*models.Metadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session metadata: %w", err)
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*models.Metadata, error) {
	var (
		subject, handle uuid.UUID
		ns              string
		meta            models.Metadata
	)
	if err := row.Scan(&subject, &ns, &handle, &meta.Device, &meta.SessionCreatedAt, &meta.LastActivityAt); err != nil {
		return nil, err
	}
	meta.SubjectID = id.SubjectID(subject)
	meta.Handle = id.HandleID(handle)
	meta.Namespace = portal.Get(portal.ID(ns)).ID
	return &meta, nil
}

// translate marks connection-class failures as unavailable.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. Class 57: operator intervention.
		switch pqErr.Code.Class() {
		case "08", "57":
			return errors.Join(err, sentinel.ErrUnavailable)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return errors.Join(err, sentinel.ErrUnavailable)
	}
	return err
}
