package matching

import (
	"context"
	"sort"
	"sync"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/domain"
)

// PoolMatcher assigns the least loaded partner from a fixed pool.
// Ties go to the lowest partner id.
type PoolMatcher struct {
	mu        sync.Mutex
	partners  []domain.Partner
	load      map[int64]int
	estimates EstimateFactory
}

// NewPoolMatcher creates a PoolMatcher over a copy of partners.
func NewPoolMatcher(partners []domain.Partner, f EstimateFactory) *PoolMatcher {
	if f == nil {
		f = NewEstimateFactory()
	}
	cp := append([]domain.Partner(nil), partners...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return &PoolMatcher{
		partners:  cp,
		load:      make(map[int64]int, len(cp)),
		estimates: f,
	}
}

// Match picks a partner and counts the new assignment against it.
func (m *PoolMatcher) Match(ctx context.Context, _ Request) (domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Assignment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.partners) == 0 {
		return domain.Assignment{}, apperr.ErrNoPartnerAvailable
	}

	best := m.partners[0]
	for _, p := range m.partners[1:] {
		if m.load[p.ID] < m.load[best.ID] {
			best = p
		}
	}

	eta, err := m.estimates.Estimate(best.Transport)
	if err != nil {
		return domain.Assignment{}, err
	}
	m.load[best.ID]++

	return domain.Assignment{
		PartnerID:     best.ID,
		PartnerName:   best.Name,
		EstimatedTime: eta,
	}, nil
}

// Release drops one assignment from the partner's load.
func (m *PoolMatcher) Release(partnerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.load[partnerID] > 0 {
		m.load[partnerID]--
	}
}

// Load returns the number of active assignments of the partner.
func (m *PoolMatcher) Load(partnerID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load[partnerID]
}
