package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/pkg/enums"
)

type contextKey string

const (
	ctxClientID contextKey = "client_id"
	ctxRole     contextKey = "actor_role"
)

// ClientIDFromContext returns the authenticated client, or nil for staff
// tokens that are not bound to a client.
func ClientIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClientID).(uuid.UUID); ok && v != uuid.Nil {
		return &v
	}
	return nil
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// IsStaff reports whether the caller authenticated with a staff token.
func IsStaff(ctx context.Context) bool {
	return RoleFromContext(ctx) == enums.ActorRoleStaff
}

// WithClientID injects the client identifier into the context.
func WithClientID(ctx context.Context, clientID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClientID, clientID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role enums.ActorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
