// Package event holds the wire contracts of events other services consume.
package event

import "time"

// Destinations (NATS subjects or Kafka topics).
const (
	IdentityProvisionedDestination      = "twofa.identity_provisioned"
	IdentityDeprovisionedDestination    = "twofa.identity_deprovisioned"
	RecoveryCodeConsumedDestination     = "twofa.recovery_code_consumed"
	RecoveryCodesRegeneratedDestination = "twofa.recovery_codes_regenerated"
)

type IdentityProvisionedMessage struct {
	IdentityID        string    `json:"identity_id"`
	CodeLength        int       `json:"code_length"`
	StepDuration      uint      `json:"step_duration"`
	HashAlgorithm     string    `json:"hash_algorithm"`
	RecoveryCodeCount int       `json:"recovery_code_count"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type IdentityDeprovisionedMessage struct {
	IdentityID string    `json:"identity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RecoveryCodeConsumedMessage struct {
	IdentityID string    `json:"identity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RecoveryCodesRegeneratedMessage struct {
	IdentityID        string    `json:"identity_id"`
	RecoveryCodeCount int       `json:"recovery_code_count"`
	OccurredAt        time.Time `json:"occurred_at"`
}
