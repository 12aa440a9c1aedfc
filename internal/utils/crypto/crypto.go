package crypto

import (
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	base64_ "packvault/internal/utils/base64"
	"packvault/internal/utils/logger"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/ssh"
)

var log = logger.New("crypto")

var PrivateKey *rsa.PrivateKey
var PublicKey *rsa.PublicKey

func InitializeKeys(privateKeyEnv string) error {
	log.Info("Initializing keys")

	if privateKeyEnv == "" {
		return errors.New("private key not found")
	}

	privateKeyEnv, err := base64_.DecodeFromBase64(privateKeyEnv)
	if err != nil {
		return fmt.Errorf("failed to decode private key: %w", err)
	}

	key, err := ssh.ParseRawPrivateKey([]byte(privateKeyEnv))
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}

	PrivateKey = key.(*rsa.PrivateKey)
	PublicKey = &PrivateKey.PublicKey
	return nil
}

// SignDownloadToken issues a short-lived RS256 token authorizing one
// archive download. The launcher presents it back on the download URL.
func SignDownloadToken(userID, versionID string, ttl time.Duration) (string, error) {
	if PrivateKey == nil {
		return "", errors.New("private key not initialized")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"user_id":    userID,
		"version_id": versionID,
		"exp":        time.Now().Add(ttl).Unix(),
	})

	return token.SignedString(PrivateKey)
}

// VerifyDownloadToken validates a download token and returns the
// version id it authorizes.
func VerifyDownloadToken(tokenString string) (string, error) {
	if PublicKey == nil {
		return "", errors.New("public key not initialized")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return PublicKey, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid download token")
	}

	versionID, _ := claims["version_id"].(string)
	if versionID == "" {
		return "", errors.New("download token missing version")
	}
	return versionID, nil
}

func ComputeWebhookSignature(requestBody []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(requestBody)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyWebhookSignature compares in constant time.
func VerifyWebhookSignature(requestBody []byte, secret, signature string) bool {
	expected := ComputeWebhookSignature(requestBody, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
