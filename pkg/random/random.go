package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the helpers need
type Source interface {
	Intn(n int) int
}

// New returns a deterministic source, used by tests
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSeeded returns a goroutine-safe source seeded from the clock
func NewTimeSeeded() Source {
	return &lockedSource{r: New(time.Now().UnixNano())}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// IntInRange returns a uniformly distributed value in [min, max]
// Example: IntInRange(src, 180, 255) never returns less than 180
func IntInRange(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.Intn(max-min+1)
}
