package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/shared/event"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func TestMessaging_PublishIdentityProvisioned(t *testing.T) {
	client := messaging.NewMemory()
	m := NewMessaging(client, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "corr-1")

	err := m.PublishIdentityProvisioned(ctx, usecase.IdentityProvisionedEvent{
		Identity: entity.IdentitySecret{
			IdentityID:    "alice",
			Secret:        []byte("never on the wire"),
			CodeLength:    8,
			StepDuration:  60,
			HashAlgorithm: otp.AlgorithmSHA512,
		},
		RecoveryCodeCount: 10,
		OccurredAt:        at,
	})
	require.NoError(t, err)

	got := client.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, event.IdentityProvisionedDestination, got[0].Destination)
	assert.Equal(t, []byte("alice"), got[0].Message.Key)
	assert.NotContains(t, string(got[0].Message.Body), "never on the wire")

	cid, ok := got[0].Message.HeaderValue(keyOfCorrelationID)
	assert.True(t, ok)
	assert.Equal(t, "corr-1", cid)

	var body event.IdentityProvisionedMessage
	require.NoError(t, json.Unmarshal(got[0].Message.Body, &body))
	assert.Equal(t, event.IdentityProvisionedMessage{
		IdentityID:        "alice",
		CodeLength:        8,
		StepDuration:      60,
		HashAlgorithm:     "SHA512",
		RecoveryCodeCount: 10,
		OccurredAt:        at,
	}, body)
}

func TestMessaging_Destinations(t *testing.T) {
	client := messaging.NewMemory()
	m := NewMessaging(client, instrument.NewNoop())
	ctx := context.Background()

	require.NoError(t, m.PublishIdentityDeprovisioned(ctx, usecase.IdentityDeprovisionedEvent{IdentityID: "a", OccurredAt: at}))
	require.NoError(t, m.PublishRecoveryCodeConsumed(ctx, usecase.RecoveryCodeConsumedEvent{IdentityID: "a", OccurredAt: at}))
	require.NoError(t, m.PublishRecoveryCodesRegenerated(ctx, usecase.RecoveryCodesRegeneratedEvent{IdentityID: "a", RecoveryCodeCount: 5, OccurredAt: at}))

	got := client.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, event.IdentityDeprovisionedDestination, got[0].Destination)
	assert.Equal(t, event.RecoveryCodeConsumedDestination, got[1].Destination)
	assert.Equal(t, event.RecoveryCodesRegeneratedDestination, got[2].Destination)

	var regen event.RecoveryCodesRegeneratedMessage
	require.NoError(t, json.Unmarshal(got[2].Message.Body, &regen))
	assert.Equal(t, 5, regen.RecoveryCodeCount)
}

func TestMessaging_PublishError(t *testing.T) {
	client := messaging.NewMemory()
	client.FailWith(errors.New("broker down"))
	m := NewMessaging(client, instrument.NewNoop())

	err := m.PublishRecoveryCodeConsumed(context.Background(), usecase.RecoveryCodeConsumedEvent{IdentityID: "a"})
	assert.EqualError(t, err, "broker down")
}
