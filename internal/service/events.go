package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/pkg/jobs"
)

// NotificationSink receives session lifecycle events. Implementations talk to
// the external notification collaborator.
type NotificationSink interface {
	Notify(ctx context.Context, event models.SessionEvent) error
}

// PaymentSink receives charge requests for adjudicated cancellations.
type PaymentSink interface {
	RequestCharge(ctx context.Context, req models.ChargeRequest) error
}

const (
	jobTypeSessionEvent  = "session_event"
	jobTypeChargeRequest = "charge_request"
)

// LoggingNotificationSink records lifecycle events to the application log.
// Stands in until the notification collaborator is wired.
type LoggingNotificationSink struct {
	Logger *zap.Logger
}

// Notify implements NotificationSink.
func (s *LoggingNotificationSink) Notify(_ context.Context, event models.SessionEvent) error {
	if s.Logger != nil {
		s.Logger.Info("session event",
			zap.String("type", string(event.Type)),
			zap.String("session_id", event.SessionID),
			zap.String("trainer_id", event.TrainerID))
	}
	return nil
}

// LoggingPaymentSink records charge requests to the application log. Stands in
// until the payment collaborator is wired.
type LoggingPaymentSink struct {
	Logger *zap.Logger
}

// RequestCharge implements PaymentSink.
func (s *LoggingPaymentSink) RequestCharge(_ context.Context, req models.ChargeRequest) error {
	if s.Logger != nil {
		s.Logger.Info("charge requested",
			zap.String("session_id", req.SessionID),
			zap.Float64("amount", req.Amount))
	}
	return nil
}

// EventPublisher fans session lifecycle events out to collaborators through a
// background queue. Publishing is fire-and-forget: a failed or slow sink never
// fails the transition that produced the event.
type EventPublisher struct {
	queue         *jobs.Queue
	notifications NotificationSink
	payments      PaymentSink
	logger        *zap.Logger
}

// NewEventPublisher wires the publisher and its dispatch queue.
func NewEventPublisher(notifications NotificationSink, payments PaymentSink, cfg jobs.QueueConfig, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &EventPublisher{notifications: notifications, payments: payments, logger: logger}
	p.queue = jobs.NewQueue("events", p.dispatch, cfg)
	return p
}

// Start begins background dispatch.
func (p *EventPublisher) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop drains the workers.
func (p *EventPublisher) Stop() {
	p.queue.Stop()
}

// PublishSession enqueues a lifecycle event for the session.
func (p *EventPublisher) PublishSession(eventType models.EventType, session *models.Session) {
	event := models.SessionEvent{
		Type:       eventType,
		SessionID:  session.ID,
		TrainerID:  session.TrainerID,
		OccurredAt: time.Now().UTC(),
	}
	if session.UserID != nil {
		event.UserID = *session.UserID
	}
	p.enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeSessionEvent, Payload: event})
}

// PublishCharge enqueues a charge request for the payment collaborator.
func (p *EventPublisher) PublishCharge(req models.ChargeRequest) {
	p.enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeChargeRequest, Payload: req})
}

func (p *EventPublisher) enqueue(job jobs.Job) {
	if err := p.queue.Enqueue(job); err != nil {
		p.logger.Warn("event dropped", zap.String("type", job.Type), zap.Error(err))
	}
}

func (p *EventPublisher) dispatch(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeSessionEvent:
		event, ok := job.Payload.(models.SessionEvent)
		if !ok {
			return fmt.Errorf("unexpected payload for %s job", job.Type)
		}
		if p.notifications == nil {
			return nil
		}
		return p.notifications.Notify(ctx, event)
	case jobTypeChargeRequest:
		req, ok := job.Payload.(models.ChargeRequest)
		if !ok {
			return fmt.Errorf("unexpected payload for %s job", job.Type)
		}
		if p.payments == nil {
			return nil
		}
		return p.payments.RequestCharge(ctx, req)
	}
	return fmt.Errorf("unknown job type %q", job.Type)
}
