package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed staff store.
type PGStore struct {
	Pool *pgxpool.Pool
}

const memberColumns = `id, name, role, COALESCE(phone, ''), permissions, salary_amount, salary_type,
	active, join_date, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, m Member, pinHash string) (Member, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO staff (name, role, phone, permissions, salary_amount, salary_type, active, join_date, pin_hash)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		RETURNING `+memberColumns,
		m.Name, m.Role, m.Phone, m.Permissions, m.SalaryAmount, string(m.SalaryType), m.Active, m.JoinDate, pinHash)
	return scanMember(row)
}

func (s *PGStore) Update(ctx context.Context, m Member) (Member, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE staff
		SET name = $2, role = $3, phone = NULLIF($4, ''), permissions = $5,
			salary_amount = $6, salary_type = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns,
		m.ID, m.Name, m.Role, m.Phone, m.Permissions, m.SalaryAmount, string(m.SalaryType))
	return scanMemberErr(row)
}

func (s *PGStore) Get(ctx context.Context, id string) (Member, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id)
	return scanMemberErr(row)
}

func (s *PGStore) List(ctx context.Context, includeInactive bool) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("staff: list: %w", err)
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("staff: list scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PGStore) SetActive(ctx context.Context, id string, active bool) (Member, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE staff SET active = $2, updated_at = now() WHERE id = $1
		RETURNING `+memberColumns, id, active)
	return scanMemberErr(row)
}

func (s *PGStore) SetPIN(ctx context.Context, id, pinHash string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE staff SET pin_hash = $2, updated_at = now() WHERE id = $1`, id, pinHash)
	if err != nil {
		return fmt.Errorf("staff: set pin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) MarkAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO attendance (staff_id, date, status, check_in)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (staff_id, date)
		DO UPDATE SET status = EXCLUDED.status, check_in = EXCLUDED.check_in
		RETURNING id, staff_id, date, status, COALESCE(check_in, '')`,
		rec.StaffID, rec.Date, string(rec.Status), rec.CheckIn)
	var out AttendanceRecord
	var status string
	if err := row.Scan(&out.ID, &out.StaffID, &out.Date, &status, &out.CheckIn); err != nil {
		return AttendanceRecord{}, fmt.Errorf("staff: mark attendance: %w", err)
	}
	out.Status = AttendanceStatus(status)
	return out, nil
}

func (s *PGStore) ListAttendance(ctx context.Context, date string) ([]AttendanceRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, staff_id, date, status, COALESCE(check_in, '')
		FROM attendance WHERE date = $1 ORDER BY staff_id`, date)
	if err != nil {
		return nil, fmt.Errorf("staff: list attendance: %w", err)
	}
	defer rows.Close()
	var out []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.StaffID, &rec.Date, &status, &rec.CheckIn); err != nil {
			return nil, fmt.Errorf("staff: attendance scan: %w", err)
		}
		rec.Status = AttendanceStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	var salaryType string
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Permissions, &m.SalaryAmount, &salaryType,
		&m.Active, &m.JoinDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Member{}, err
	}
	m.SalaryType = SalaryType(salaryType)
	return m, nil
}

func scanMemberErr(row pgx.Row) (Member, error) {
	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("staff: scan: %w", err)
	}
	return m, nil
}
