package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/shared/event"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishIdentityProvisioned(ctx context.Context, msg usecase.IdentityProvisionedEvent) error {
	return m.publish(ctx, "PublishIdentityProvisioned", event.IdentityProvisionedDestination, msg.Identity.IdentityID,
		event.IdentityProvisionedMessage{
			IdentityID:        msg.Identity.IdentityID,
			CodeLength:        msg.Identity.CodeLength,
			StepDuration:      msg.Identity.StepDuration,
			HashAlgorithm:     msg.Identity.HashAlgorithm.String(),
			RecoveryCodeCount: msg.RecoveryCodeCount,
			OccurredAt:        msg.OccurredAt,
		})
}

func (m *Messaging) PublishIdentityDeprovisioned(ctx context.Context, msg usecase.IdentityDeprovisionedEvent) error {
	return m.publish(ctx, "PublishIdentityDeprovisioned", event.IdentityDeprovisionedDestination, msg.IdentityID,
		event.IdentityDeprovisionedMessage{
			IdentityID: msg.IdentityID,
			OccurredAt: msg.OccurredAt,
		})
}

func (m *Messaging) PublishRecoveryCodeConsumed(ctx context.Context, msg usecase.RecoveryCodeConsumedEvent) error {
	return m.publish(ctx, "PublishRecoveryCodeConsumed", event.RecoveryCodeConsumedDestination, msg.IdentityID,
		event.RecoveryCodeConsumedMessage{
			IdentityID: msg.IdentityID,
			OccurredAt: msg.OccurredAt,
		})
}

func (m *Messaging) PublishRecoveryCodesRegenerated(ctx context.Context, msg usecase.RecoveryCodesRegeneratedEvent) error {
	return m.publish(ctx, "PublishRecoveryCodesRegenerated", event.RecoveryCodesRegeneratedDestination, msg.IdentityID,
		event.RecoveryCodesRegeneratedMessage{
			IdentityID:        msg.IdentityID,
			RecoveryCodeCount: msg.RecoveryCodeCount,
			OccurredAt:        msg.OccurredAt,
		})
}

// publish keys every message by identity so brokers that partition keep one
// identity's events in order.
func (m *Messaging) publish(ctx context.Context, name, dest, key string, payload any) error {
	ctx, span := m.ins.Tracer(instrument.ScopeMessaging).Start(ctx, name)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, dest, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(key),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
