package common

import "context"

type ctxKey string

const (
	staffIDKey     ctxKey = "auth/staff-id"
	permissionsKey ctxKey = "auth/permissions"
)

// WithStaffID stores the authenticated staff identifier on the provided context.
func WithStaffID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, staffIDKey, id)
}

// StaffID extracts the authenticated staff identifier from the context if present.
func StaffID(ctx context.Context) (string, bool) {
	v := ctx.Value(staffIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithPermissions stores the caller's granted permissions on the context.
func WithPermissions(ctx context.Context, perms []string) context.Context {
	return context.WithValue(ctx, permissionsKey, perms)
}

// Permissions returns the caller's granted permissions, if any.
func Permissions(ctx context.Context) []string {
	v, _ := ctx.Value(permissionsKey).([]string)
	return v
}

// HasPermission reports whether the context carries the named permission.
func HasPermission(ctx context.Context, perm string) bool {
	for _, p := range Permissions(ctx) {
		if p == perm {
			return true
		}
	}
	return false
}
