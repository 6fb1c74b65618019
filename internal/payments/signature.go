package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes and checks gateway payment signatures
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID))
func (s *Signer) Sign(orderID, paymentID string) string {
	return hexMAC(s.secret, []byte(orderID+"|"+paymentID))
}

// Verify compares in constant time
func (s *Signer) Verify(orderID, paymentID, signature string) bool {
	if len(s.secret) == 0 || orderID == "" || paymentID == "" {
		return false
	}
	return hmac.Equal([]byte(s.Sign(orderID, paymentID)), []byte(signature))
}

// VerifyWebhook checks the signature header of a webhook delivery against its raw body
func VerifyWebhook(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(hexMAC([]byte(secret), body)), []byte(signature))
}

// SignWebhook is the counterpart of VerifyWebhook
func SignWebhook(secret string, body []byte) string {
	return hexMAC([]byte(secret), body)
}

func hexMAC(key, message []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
