package sigv4

import (
	"crypto/hmac"
	"encoding/hex"
	"strings"

	"github.com/minio/sha256-simd"
)

const (
	Algorithm = "AWS4-HMAC-SHA256"

	scopeTerminator = "aws4_request"
)

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hashSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SigningKey derives the request signing key. Every stage is keyed with the
// raw bytes of the previous one.
func SigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, scopeTerminator)
}

func CredentialScope(dateStamp, region, service string) string {
	return strings.Join([]string{dateStamp, region, service, scopeTerminator}, "/")
}

func StringToSign(amzDate, credentialScope, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		amzDate,
		credentialScope,
		hashSHA256([]byte(canonicalRequest)),
	}, "\n")
}

// Signature returns the hex encoded signature of stringToSign.
func Signature(stringToSign, secretKey, dateStamp, region, service string) string {
	key := SigningKey(secretKey, dateStamp, region, service)
	return hex.EncodeToString(hmacSHA256(key, stringToSign))
}
