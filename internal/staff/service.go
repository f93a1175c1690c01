package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
)

var (
	ErrNotFound     = errors.New("staff member not found")
	ErrInvalidInput = errors.New("invalid staff input")
)

// Store persists staff members and attendance.
type Store interface {
	Create(ctx context.Context, m Member, pinHash string) (Member, error)
	Update(ctx context.Context, m Member) (Member, error)
	Get(ctx context.Context, id string) (Member, error)
	List(ctx context.Context, includeInactive bool) ([]Member, error)
	SetActive(ctx context.Context, id string, active bool) (Member, error)
	SetPIN(ctx context.Context, id, pinHash string) error
	MarkAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
	ListAttendance(ctx context.Context, date string) ([]AttendanceRecord, error)
}

// SessionRevoker invalidates a staff member's login sessions. Satisfied by
// the auth service.
type SessionRevoker interface {
	RevokeStaff(ctx context.Context, staffID string) error
}

// Service manages the staff roster and attendance book.
type Service struct {
	Store    Store
	Sessions SessionRevoker
}

// CreateInput carries a new staff member plus their initial PIN.
type CreateInput struct {
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Phone        string     `json:"phone"`
	Permissions  []string   `json:"permissions"`
	SalaryAmount float64    `json:"salaryAmount"`
	SalaryType   SalaryType `json:"salaryType"`
	PIN          string     `json:"pin"`
	JoinDate     time.Time  `json:"joinDate"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !ValidRole(in.Role) {
		return Member{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if in.SalaryAmount < 0 {
		return Member{}, fmt.Errorf("%w: salary must not be negative", ErrInvalidInput)
	}
	if in.SalaryType == "" {
		in.SalaryType = SalaryMonthly
	}
	if in.SalaryType != SalaryMonthly && in.SalaryType != SalaryDaily {
		return Member{}, fmt.Errorf("%w: unknown salary type %q", ErrInvalidInput, in.SalaryType)
	}
	pinHash, err := hashPIN(in.PIN)
	if err != nil {
		return Member{}, err
	}
	joinDate := in.JoinDate
	if joinDate.IsZero() {
		joinDate = time.Now()
	}
	return s.Store.Create(ctx, Member{
		Name:         name,
		Role:         in.Role,
		Phone:        strings.TrimSpace(in.Phone),
		Permissions:  normalizePermissions(in.Permissions),
		SalaryAmount: in.SalaryAmount,
		SalaryType:   in.SalaryType,
		Active:       true,
		JoinDate:     joinDate,
	}, pinHash)
}

func (s *Service) Update(ctx context.Context, m Member) (Member, error) {
	if strings.TrimSpace(m.ID) == "" {
		return Member{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Name) == "" {
		return Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !ValidRole(m.Role) {
		return Member{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, m.Role)
	}
	m.Permissions = normalizePermissions(m.Permissions)
	return s.Store.Update(ctx, m)
}

func (s *Service) Get(ctx context.Context, id string) (Member, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]Member, error) {
	return s.Store.List(ctx, includeInactive)
}

// SetActive flips the active flag. Deactivation also revokes sessions so a
// dismissed staff member cannot keep using an issued token pair.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (Member, error) {
	m, err := s.Store.SetActive(ctx, id, active)
	if err != nil {
		return Member{}, err
	}
	if !active && s.Sessions != nil {
		if err := s.Sessions.RevokeStaff(ctx, id); err != nil {
			return Member{}, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return m, nil
}

// SetPIN replaces the login PIN and revokes existing sessions.
func (s *Service) SetPIN(ctx context.Context, id, pin string) error {
	pinHash, err := hashPIN(pin)
	if err != nil {
		return err
	}
	if err := s.Store.SetPIN(ctx, id, pinHash); err != nil {
		return err
	}
	if s.Sessions != nil {
		return s.Sessions.RevokeStaff(ctx, id)
	}
	return nil
}

// MarkAttendance records the day's status for a staff member, overwriting any
// earlier entry for the same day.
func (s *Service) MarkAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	if strings.TrimSpace(rec.StaffID) == "" {
		return AttendanceRecord{}, fmt.Errorf("%w: staffId is required", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", rec.Date); err != nil {
		return AttendanceRecord{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if !ValidAttendanceStatus(rec.Status) {
		return AttendanceRecord{}, fmt.Errorf("%w: unknown attendance status %q", ErrInvalidInput, rec.Status)
	}
	if _, err := s.Store.Get(ctx, rec.StaffID); err != nil {
		return AttendanceRecord{}, err
	}
	return s.Store.MarkAttendance(ctx, rec)
}

func (s *Service) ListAttendance(ctx context.Context, date string) ([]AttendanceRecord, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return s.Store.ListAttendance(ctx, date)
}

func hashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < 4 {
		return "", fmt.Errorf("%w: pin must be at least 4 digits", ErrInvalidInput)
	}
	hash, err := argon2id.CreateHash(pin, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return hash, nil
}

func normalizePermissions(perms []string) []string {
	out := make([]string, 0, len(perms))
	seen := map[string]bool{}
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
