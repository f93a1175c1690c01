package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore reads staff credentials and persists refresh sessions in Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) ActiveCredentials(ctx context.Context) ([]Credential, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, role, pin_hash, permissions
		FROM staff
		WHERE active AND pin_hash <> ''`)
	if err != nil {
		return nil, fmt.Errorf("auth: list credentials: %w", err)
	}
	defer rows.Close()
	var out []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.StaffID, &c.Name, &c.Role, &c.PINHash, &c.Permissions); err != nil {
			return nil, fmt.Errorf("auth: scan credential: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) CredentialByStaffID(ctx context.Context, staffID string) (Credential, error) {
	var c Credential
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, role, pin_hash, permissions
		FROM staff
		WHERE id = $1 AND active`, staffID).
		Scan(&c.StaffID, &c.Name, &c.Role, &c.PINHash, &c.Permissions)
	if err != nil {
		return Credential{}, fmt.Errorf("auth: credential by staff: %w", err)
	}
	return c, nil
}

func (s *PGStore) CreateSession(ctx context.Context, staffID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO sessions (staff_id, refresh_token, user_agent, ip, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`,
		staffID, tokenHash, userAgent, ip, expiresAt)
	if err != nil {
		return fmt.Errorf("auth: create session: %w", err)
	}
	return nil
}

func (s *PGStore) GetSessionByToken(ctx context.Context, tokenHash string) (Session, error) {
	var sess Session
	err := s.Pool.QueryRow(ctx, `
		SELECT id, staff_id, expires_at FROM sessions WHERE refresh_token = $1`, tokenHash).
		Scan(&sess.ID, &sess.StaffID, &sess.ExpiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("auth: session by token: %w", err)
	}
	return sess, nil
}

func (s *PGStore) RotateSessionToken(ctx context.Context, sessionID, tokenHash string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`,
		sessionID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("auth: rotate session: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteSessionsByStaff(ctx context.Context, staffID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE staff_id = $1`, staffID)
	if err != nil {
		return fmt.Errorf("auth: delete staff sessions: %w", err)
	}
	return nil
}
