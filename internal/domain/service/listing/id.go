package listing

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"tg_listing/internal/domain/entity"
)

// maxTitleLen ограничивает длину ID: payload deep-link в Telegram не длиннее 64 символов.
const maxTitleLen = 20

// IDGenerator выдаёт ID вида {kind}_{title}_{unix}. Время не идёт назад,
// а повтор одной и той же основы в пределах секунды получает суффикс _{n}.
type IDGenerator struct {
	mu     sync.Mutex
	now    func() time.Time
	last   int64
	counts map[string]int
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		now:    time.Now,
		counts: make(map[string]int),
	}
}

func (g *IDGenerator) WithClock(now func() time.Time) *IDGenerator {
	g.now = now
	return g
}

func (g *IDGenerator) Generate(kind entity.OfferKind, title string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().Unix()
	if ts < g.last {
		ts = g.last
	}
	if ts != g.last {
		g.last = ts
		clear(g.counts)
	}

	base := fmt.Sprintf("%s_%s_%d", kind, Sanitize(title), ts)
	g.counts[base]++
	if n := g.counts[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

// Sanitize оставляет только ASCII-буквы и цифры.
func Sanitize(title string) string {
	var b strings.Builder
	for _, r := range title {
		if b.Len() >= maxTitleLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
