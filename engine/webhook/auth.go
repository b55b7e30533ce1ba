// Package webhook authenticates inbound product webhooks and exposes the
// HTTP surface of the fitment engine.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the base64 HMAC-SHA256 digest of the raw body.
const SignatureHeader = "X-Shopify-Hmac-Sha256"

// VerifySignature reports whether signature is a valid base64-encoded
// HMAC-SHA256 of body under secret. The digest is computed over the raw
// bytes as delivered, before any JSON parsing. An empty secret or empty
// signature never verifies.
func VerifySignature(secret, signature string, body []byte) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

// Sign computes the signature VerifySignature expects. Used by the sender
// side of tests and by replay tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
