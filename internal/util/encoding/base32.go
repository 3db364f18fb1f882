// Package encoding renders binary identifiers as short, URL and cookie safe strings.
package encoding

import "encoding/base32"

// Crockford's alphabet in lowercase, without i, l, o and u.
const idAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

//nolint:gochecknoglobals
var idEncoding = base32.NewEncoding(idAlphabet).WithPadding(base32.NoPadding)

// EncodeID encodes b as unpadded lowercase base32.
func EncodeID(b []byte) string {
	return idEncoding.EncodeToString(b)
}

// ValidID reports whether s is a well-formed id of n source bytes.
func ValidID(s string, n int) bool {
	if len(s) != idEncoding.EncodedLen(n) {
		return false
	}

	b, err := idEncoding.DecodeString(s)

	return err == nil && len(b) == n
}
