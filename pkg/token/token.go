package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// SigningSecretBytes is the entropy of a freshly generated signing secret (512 bits).
	SigningSecretBytes = 64

	errGenerateRandomBytesFmt = "failed to generate random bytes: %w"
	errByteLengthPositiveFmt  = "byteLength must be positive"
)

func GenerateHex(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf(errByteLengthPositiveFmt)
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf(errGenerateRandomBytesFmt, err)
	}

	return hex.EncodeToString(bytes), nil
}

// GenerateSigningSecret returns a hex encoded random secret suitable for HS256.
func GenerateSigningSecret() (string, error) {
	return GenerateHex(SigningSecretBytes)
}
