package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const (
	// RoomCodeLength is the number of characters in a room code
	RoomCodeLength = 6

	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateRoomCode returns a random room code drawn uniformly from A-Z and
// 0-9. Uniqueness is the caller's job.
func GenerateRoomCode() (string, error) {
	code := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(roomCodeAlphabet)))

	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = roomCodeAlphabet[num.Int64()]
	}

	return string(code), nil
}

// GenerateSecureToken returns length random bytes hex encoded
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
