// utils/receipt.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReceiptNumber builds a receipt number like
// "NXV-20250131-7F3A2B1C" from the current date and a random suffix
func GenerateReceiptNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("NXV-%s-%s", time.Now().Format("20060102"), suffix)
}

// GenerateRechargePIN generates a numeric recharge PIN of the given
// length using a cryptographic source
func GenerateRechargePIN(length int) (string, error) {
	if length <= 0 {
		length = 12
	}

	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(n.String())
	}

	return b.String(), nil
}
