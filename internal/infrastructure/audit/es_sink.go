// Package audit ships authentication events to Elasticsearch.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

const (
	indexTimeout = 3 * time.Second
	// DefaultQueueSize bounds the events waiting to be indexed.
	DefaultQueueSize = 1024
)

// ESSink indexes one document per audit event. Record only enqueues; Run
// does the indexing, so a slow cluster never delays a request. Events that
// arrive while the queue is full are dropped with a warning.
type ESSink struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger

	queue chan application.AuditEvent
}

func NewESSink(es *elasticsearch.Client, index string, logger *logrus.Logger, queueSize int) *ESSink {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &ESSink{ES: es, Index: index, Logger: logger, queue: make(chan application.AuditEvent, queueSize)}
}

func (s *ESSink) Record(_ context.Context, ev application.AuditEvent) {
	if s.ES == nil || s.Index == "" {
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.Logger.WithField("action", ev.Action).Warn("audit queue full; event dropped")
	}
}

// Run indexes queued events until ctx is done, then flushes what is left.
func (s *ESSink) Run(ctx context.Context) {
	for {
		select {
		case ev := <-s.queue:
			s.index(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-s.queue:
					s.index(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *ESSink) index(ev application.AuditEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		s.Logger.WithError(err).Warn("audit event encode failed")
		return
	}
	req := esapi.IndexRequest{Index: s.Index, Body: bytes.NewReader(b), Refresh: "false"}

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()
	res, err := req.Do(ctx, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("action", ev.Action).Warn("es audit index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("action", ev.Action).Warn("es audit index response error")
	}
}

// Multi fans an event out to several sinks.
type Multi []application.AuditSink

func (m Multi) Record(ctx context.Context, ev application.AuditEvent) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

// LogSink writes audit events to the application log.
type LogSink struct {
	Logger *logrus.Logger
}

func (s LogSink) Record(_ context.Context, ev application.AuditEvent) {
	s.Logger.WithFields(logrus.Fields{
		"action":     ev.Action,
		"user_id":    ev.UserID,
		"email":      ev.Email,
		"provider":   ev.Provider,
		"request_id": ev.RequestID,
		"ip":         ev.IP,
	}).Info("auth event")
}
