package auth

import (
	"context"

	"github.com/shinwari-dera/backend-pos/internal/common"
)

// ContextAuthorizer grants capabilities from the permissions the auth
// middleware placed on the request context. It is the default policy injected
// into services that gate privileged operations.
type ContextAuthorizer struct{}

func (ContextAuthorizer) Allow(ctx context.Context, capability string) bool {
	return common.HasPermission(ctx, capability)
}
