package audit

import (
	"context"
	"expvar"

	"github.com/oksasatya/teamsync/internal/application"
)

var authEvents = expvar.NewMap("auth_events")

// CounterSink counts events per action; the totals show up under /api/debug/vars.
type CounterSink struct{}

func (CounterSink) Record(_ context.Context, ev application.AuditEvent) {
	authEvents.Add(ev.Action, 1)
}
