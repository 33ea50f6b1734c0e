package application

import (
	"context"

	"github.com/oksasatya/teamsync/internal/domain/entity"
)

type ctxKey int

const (
	userKey ctxKey = iota
	metaKey
)

// RequestMeta describes the caller of a request, for audit records.
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user attached by the route guard.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userKey).(*entity.User)
	return u, ok && u != nil
}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey, m)
}

func RequestMetaFromContext(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey).(RequestMeta)
	return m
}
