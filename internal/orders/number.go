package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber produces a human-readable order reference like
// BS-20250314-482913. Uniqueness is enforced by the DB index; the caller
// retries on collision.
func GenerateOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	return fmt.Sprintf("BS-%s-%06d", now.UTC().Format("20060102"), n.Int64()), nil
}
