package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ispcompare/authcore/internal/dbx"
)

// PostgresStore implements [Store] over a dbx.Querier, satisfied by both
// *sql.DB and *sql.Tx. Use the pgx stdlib driver to open the database.
type PostgresStore struct {
	db dbx.Querier
}

// NewPostgresStore binds a store to the given querier.
func NewPostgresStore(db dbx.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert persists a new refresh-token row. A zero ID or CreatedAt is filled
// in before writing.
func (s *PostgresStore) Insert(ctx context.Context, token *RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO refresh_tokens (id, token, subject_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		token.ID, token.Value, token.SubjectID, token.ExpiresAt, token.Revoked, token.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// FindByValue returns the row for the opaque value, or ErrNotFound.
func (s *PostgresStore) FindByValue(ctx context.Context, value string) (*RefreshToken, error) {
	query := `
		SELECT id, token, subject_id, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	row := &RefreshToken{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&row.ID, &row.Value, &row.SubjectID, &row.ExpiresAt, &row.Revoked, &row.RevokedAt, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return row, nil
}

// FindBySubject returns every row owned by subjectID, newest first.
func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID string) ([]*RefreshToken, error) {
	query := `
		SELECT id, token, subject_id, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE subject_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("find refresh tokens by subject: %w", err)
	}
	defer rows.Close()

	var out []*RefreshToken
	for rows.Next() {
		row := &RefreshToken{}
		if err := rows.Scan(
			&row.ID, &row.Value, &row.SubjectID, &row.ExpiresAt, &row.Revoked, &row.RevokedAt, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh tokens: %w", err)
	}
	return out, nil
}

// MarkRevoked revokes the row with the given value. The WHERE clause filters
// on revoked = FALSE, so repeated calls and unknown values change nothing and
// report false; exactly one concurrent caller sees true.
func (s *PostgresStore) MarkRevoked(ctx context.Context, value string, now time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE token = $1 AND revoked = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, value, now)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count revoked refresh tokens: %w", err)
	}
	return n > 0, nil
}

// MarkAllRevokedForSubject revokes every non-revoked row owned by subjectID.
func (s *PostgresStore) MarkAllRevokedForSubject(ctx context.Context, subjectID string, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE subject_id = $1 AND revoked = FALSE
	`
	if _, err := s.db.ExecContext(ctx, query, subjectID, now); err != nil {
		return fmt.Errorf("revoke refresh tokens for subject: %w", err)
	}
	return nil
}

// DeleteExpired removes rows past their expiry and reports the count.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted refresh tokens: %w", err)
	}
	return n, nil
}
