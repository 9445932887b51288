package devserver

import "sync"

// demoQuota counts anonymous generations per device fingerprint, the way
// the production service rate-limits unauthenticated demo usage.
type demoQuota struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func newDemoQuota(limit int) *demoQuota {
	return &demoQuota{
		limit:  limit,
		counts: make(map[string]int),
	}
}

// Take consumes one demo generation. It returns the count used so far,
// the limit, and whether the fingerprint is still within quota.
func (q *demoQuota) Take(fingerprint string) (int, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.counts[fingerprint] >= q.limit {
		return q.counts[fingerprint], q.limit, false
	}

	q.counts[fingerprint]++
	return q.counts[fingerprint], q.limit, true
}
