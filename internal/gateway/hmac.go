package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyHMAC validates a hex encoded HMAC-SHA256 signature of body.
func VerifyHMAC(body []byte, signature, secret string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sign(body, secret))
}

// Sign returns the hex encoded HMAC-SHA256 of body.
func Sign(body []byte, secret string) string {
	return hex.EncodeToString(sign(body, secret))
}

func sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
