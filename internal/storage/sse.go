// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/hkdf"
)

const (
	headerSSECAlgorithm = "X-Amz-Server-Side-Encryption-Customer-Algorithm"
	headerSSECKey       = "X-Amz-Server-Side-Encryption-Customer-Key"
	headerSSECKeyMD5    = "X-Amz-Server-Side-Encryption-Customer-Key-MD5"
)

type ssecKey struct {
	raw []byte
	b64 string
	md5 string
}

// createSSECKey derives the customer key of one object from the master key.
// The object is identified by endpoint, bucket and key so every object gets
// its own key.
func createSSECKey(masterKey, endpoint, bucket, key string) (k ssecKey, err error) {
	h := hkdf.New(sha256.New, []byte(masterKey), nil, []byte(endpoint+"/"+bucket+"/"+key))
	k.raw = make([]byte, 32)
	if _, err := io.ReadFull(h, k.raw); err != nil {
		return k, fmt.Errorf("failed to generate sse-c key: %w", err)
	}

	k.b64 = base64.StdEncoding.EncodeToString(k.raw)
	md5Sum := md5.Sum(k.raw)
	k.md5 = base64.StdEncoding.EncodeToString(md5Sum[:])
	return
}

func (k ssecKey) headers() map[string]string {
	return map[string]string{
		headerSSECAlgorithm: "AES256",
		headerSSECKey:       k.b64,
		headerSSECKeyMD5:    k.md5,
	}
}
