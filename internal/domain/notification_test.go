package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "kitchen_sync/pkg/errors"
)

func TestEnvelopeValidate(t *testing.T) {
	valid := NewEnvelope("pantry-synced", map[string]interface{}{"type": "pantry-synced"})
	assert.NoError(t, valid.Validate())

	noType := NotificationEnvelope{Payload: map[string]interface{}{"a": 1}}
	assert.ErrorIs(t, noType.Validate(), apperrors.ErrInvalidEnvelope)

	nilPayload := NotificationEnvelope{Type: "pantry-synced"}
	assert.ErrorIs(t, nilPayload.Validate(), apperrors.ErrInvalidEnvelope)

	emptyPayload := NotificationEnvelope{Type: "pantry-synced", Payload: map[string]interface{}{}}
	assert.ErrorIs(t, emptyPayload.Validate(), apperrors.ErrInvalidEnvelope)
}

func TestRateLimitKeyStripsColons(t *testing.T) {
	assert.Equal(t, "policy:2001db81", RateLimitKey("policy", "2001:db8::1"))
	assert.Equal(t, "policy:user-1", RateLimitKey("policy", "user-1"))
}
