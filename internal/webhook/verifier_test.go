package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cujumbu/multistore2/internal/domain"
)

const testSecret = "whsec_test_secret"

// signPayload produces the provider's signature header: an HMAC-SHA256
// over "<timestamp>.<payload>" with the webhook secret.
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload() []byte {
	return []byte(`{
		"id": "evt_test_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_123", "amount_total": 39900}}
	}`)
}

func TestVerify_ValidSignature(t *testing.T) {
	verifier := NewStripeVerifier()
	payload := eventPayload()
	header := signPayload(payload, testSecret, time.Now())

	event, err := verifier.Verify(payload, header, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, domain.EventCheckoutSessionCompleted, event.Type)
	assert.Contains(t, string(event.Object), "cs_test_123")
}

func TestVerify_TamperedBody(t *testing.T) {
	verifier := NewStripeVerifier()
	payload := eventPayload()
	header := signPayload(payload, testSecret, time.Now())

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'X'

	_, err := verifier.Verify(tampered, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	verifier := NewStripeVerifier()
	payload := eventPayload()
	header := signPayload(payload, "whsec_other", time.Now())

	_, err := verifier.Verify(payload, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_ExpiredTimestamp(t *testing.T) {
	verifier := NewStripeVerifier()
	payload := eventPayload()
	header := signPayload(payload, testSecret, time.Now().Add(-time.Hour))

	_, err := verifier.Verify(payload, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_MissingHeader(t *testing.T) {
	verifier := NewStripeVerifier()

	_, err := verifier.Verify(eventPayload(), "", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
