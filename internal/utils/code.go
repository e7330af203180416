package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateIdentificationCode generates a cryptographically secure 4-digit
// representative code in the range 1000-9999
func GenerateIdentificationCode() (string, error) {
	// Generate a random number between 0 and 8999
	max := big.NewInt(9000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	// Shift into 1000-9999 so the code never starts with a zero
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
