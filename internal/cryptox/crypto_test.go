package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	secret := []byte("webhook-secret")
	payload := []byte(`{"commits":[]}`)

	signature := SignPayload(secret, payload)
	assert.True(t, len(signature) > len(SignaturePrefix))
	assert.Contains(t, signature, SignaturePrefix)
	assert.True(t, VerifySignature(secret, payload, signature))
}

func TestVerifyRejects(t *testing.T) {
	secret := []byte("webhook-secret")
	payload := []byte(`{"commits":[]}`)
	signature := SignPayload(secret, payload)

	tests := []struct {
		name      string
		secret    []byte
		payload   []byte
		signature string
	}{
		{"wrong secret", []byte("other"), payload, signature},
		{"tampered payload", secret, []byte(`{"commits":[1]}`), signature},
		{"missing prefix", secret, payload, signature[len(SignaturePrefix):]},
		{"not hex", secret, payload, SignaturePrefix + "zzzz"},
		{"empty", secret, payload, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(tt.secret, tt.payload, tt.signature))
		})
	}
}
