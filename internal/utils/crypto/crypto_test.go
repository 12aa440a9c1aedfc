package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestKeys(t *testing.T) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	PrivateKey = key
	PublicKey = &key.PublicKey
	t.Cleanup(func() {
		PrivateKey = nil
		PublicKey = nil
	})
}

func TestDownloadTokenRoundTrip(t *testing.T) {
	setTestKeys(t)

	token, err := SignDownloadToken("user-1", "version-9", time.Hour)
	require.NoError(t, err)

	versionID, err := VerifyDownloadToken(token)
	require.NoError(t, err)
	assert.Equal(t, "version-9", versionID)
}

func TestExpiredDownloadTokenRejected(t *testing.T) {
	setTestKeys(t)

	token, err := SignDownloadToken("user-1", "version-9", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyDownloadToken(token)
	assert.Error(t, err)
}

func TestGarbageDownloadTokenRejected(t *testing.T) {
	setTestKeys(t)

	_, err := VerifyDownloadToken("not-a-token")
	assert.Error(t, err)
}

func TestDownloadTokenRequiresInitializedKeys(t *testing.T) {
	PrivateKey = nil
	PublicKey = nil

	_, err := SignDownloadToken("user-1", "version-9", time.Hour)
	assert.Error(t, err)

	_, err = VerifyDownloadToken("anything")
	assert.Error(t, err)
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.confirmed","payment_id":"pay_1"}`)

	sig := ComputeWebhookSignature(body, "secret")
	assert.True(t, VerifyWebhookSignature(body, "secret", sig))
	assert.False(t, VerifyWebhookSignature(body, "other-secret", sig))
	assert.False(t, VerifyWebhookSignature([]byte("tampered"), "secret", sig))
}
