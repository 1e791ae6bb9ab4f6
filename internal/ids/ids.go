// Package ids genera identificadores ordenables (ULID) para registros
// persistidos: refresh tokens, roles e identidades de seed.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New retorna un ULID monotónico en su forma canónica (26 chars).
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Valid indica si s es un ULID parseable.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
