package application

import (
	"context"
	"time"
)

// Audit actions.
const (
	AuditRegister      = "register"
	AuditLoginSuccess  = "login_success"
	AuditLoginFailure  = "login_failure"
	AuditProviderLogin = "provider_login"
)

// AuditEvent is one authentication-relevant occurrence.
type AuditEvent struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	At        time.Time `json:"at"`
}

// NewAuditEvent fills the request fields from ctx.
func NewAuditEvent(ctx context.Context, action string) AuditEvent {
	m := RequestMetaFromContext(ctx)
	return AuditEvent{
		Action:    action,
		RequestID: m.RequestID,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		At:        time.Now().UTC(),
	}
}

// AuditSink receives audit events. Implementations must not fail the request.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}

type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, AuditEvent) {}
