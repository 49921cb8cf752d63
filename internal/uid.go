package internal

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"unicode/utf8"
)

const maxUIDBytes = 128

// ErrInvalidUID is returned when a uid segment cannot be decoded to a user id.
var ErrInvalidUID = errors.New("invalid uid")

// EncodeUID renders a user id as the base64url segment used in reset links.
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

// DecodeUID reverses EncodeUID. Padded input is accepted for links produced
// by older clients.
func DecodeUID(uid string) (string, error) {
	if uid == "" || len(uid) > maxUIDBytes {
		return "", ErrInvalidUID
	}

	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(uid)
		if err != nil {
			return "", ErrInvalidUID
		}
	}
	if len(raw) == 0 || !utf8.Valid(raw) {
		return "", ErrInvalidUID
	}
	return string(raw), nil
}

// HashToken digests an opaque token for storage.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
