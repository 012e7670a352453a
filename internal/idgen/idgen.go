// Package idgen issues the external identifiers of payments and refunds.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

const hexLen = 16

// Generator returns a new identifier per call.
type Generator func() string

// Transaction returns an id of the form TXN + 16 upper-case hex digits.
func Transaction() string { return prefixed("TXN") }

// Refund returns an id of the form REF + 16 upper-case hex digits.
func Refund() string { return prefixed("REF") }

func prefixed(prefix string) string {
	u := uuid.New()
	hex := strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))
	return prefix + hex[:hexLen]
}
