// Package capability implements the stateless signed tokens used for admin
// sessions and one-time review responses.
//
// Wire format: base64url(payload) "." base64url(hmac_sha256(secret, payload)),
// unpadded. The base64url alphabet has no '.', so the separator never collides
// with segment content.
package capability

import (
	"encoding/base64"
	"strings"
)

const separator = "."

var segmentEncoding = base64.RawURLEncoding.Strict()

func encodeSegment(b []byte) string {
	return segmentEncoding.EncodeToString(b)
}

// decodeSegment acepta una sola codificación por token: sin padding "=".
func decodeSegment(s string) ([]byte, error) {
	if s == "" || strings.ContainsRune(s, '=') {
		return nil, ErrMalformed
	}
	b, err := segmentEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrMalformed
	}
	return b, nil
}

func joinSegments(payload, mac []byte) string {
	return encodeSegment(payload) + separator + encodeSegment(mac)
}

// Preview muestra solo el principio y el final del token (seguro para UI/logs).
func Preview(token string) string {
	t := strings.TrimSpace(token)
	if len(t) <= 16 {
		return t
	}
	return t[:8] + "..." + t[len(t)-6:]
}
