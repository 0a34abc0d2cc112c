// Package signing implements the gateway's canonical message signature.
//
// Every inbound request and outbound webhook carries a `sign` field computed
// over the remaining fields and the merchant's shared secret. The canonical
// string is the key-sorted, percent-encoded query form of the fields with
// the raw secret appended, digested with SHA-512 and rendered as lowercase
// hex. Both sides must reproduce the string byte for byte, so the encoding
// rules here are load-bearing: spaces encode as %20, never '+'.
package signing

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureField is the name of the field that carries the signature itself.
// It is always excluded from the canonical string.
const SignatureField = "sign"

// Sign computes the signature over fields and the shared secret.
// The result is deterministic: the field map's iteration order is irrelevant
// because keys are sorted before serialization.
func Sign(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(encode(k))
		b.WriteByte('=')
		b.WriteString(encode(fields[k]))
	}
	// The secret is appended raw, with no separator.
	b.WriteString(secret)

	sum := sha512.Sum512([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over the field set and secret and compares
// it in constant time against the signature presented in the sign field. A
// field set without a sign field never verifies.
func Verify(fields map[string]string, secret string) bool {
	signature, ok := fields[SignatureField]
	if !ok {
		return false
	}
	expected := Sign(fields, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// encode percent-encodes a canonical-string component. url.QueryEscape is
// the right table except that it emits '+' for space.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
