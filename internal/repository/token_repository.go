package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"
)

// RefreshTokenRepo stores refresh tokens.  Only a SHA-256 hash of the raw
// token is persisted; the raw string exists solely in the client's hands.
type RefreshTokenRepo struct {
	db *sql.DB
}

// NewRefreshTokenRepo returns a new RefreshTokenRepo bound to the database.
func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// HashToken returns the hex-encoded SHA-256 digest of a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Store persists a refresh token hash for a user with its expiry.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, raw string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, HashToken(raw), expiresAt.UTC())
	return err
}

// Lookup resolves a raw refresh token to its owning user.  Expired or
// unknown tokens return ErrNotFound.
func (r *RefreshTokenRepo) Lookup(ctx context.Context, raw string) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens WHERE token_hash = ? AND expires_at > UTC_TIMESTAMP()`,
		HashToken(raw)).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Revoke deletes a refresh token, invalidating the session.  Revoking an
// unknown token is not an error.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, raw string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, HashToken(raw))
	return err
}
