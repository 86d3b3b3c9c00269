package purchase

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// attemptIDs выдаёт ULID попыток оплаты. Энтропия монотонна и защищена мьютексом.
type attemptIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newAttemptIDs() *attemptIDs {
	return &attemptIDs{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0), //nolint:gosec // ids, not secrets
	}
}

func (a *attemptIDs) next() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ulid.MustNew(ulid.Now(), a.entropy).String()
}
