package matching

import (
	"context"

	"service-fulfillment/internal/domain"
)

// DefaultAssignment is the courier handed out when no pool is configured.
var DefaultAssignment = domain.Assignment{
	PartnerID:     501,
	PartnerName:   "John Delivery",
	EstimatedTime: "25-30 min",
}

// StaticMatcher always assigns the same partner.
type StaticMatcher struct {
	assignment domain.Assignment
}

// NewStaticMatcher creates a StaticMatcher. Zero fields fall back to DefaultAssignment.
func NewStaticMatcher(a domain.Assignment) *StaticMatcher {
	if a.PartnerID <= 0 {
		a.PartnerID = DefaultAssignment.PartnerID
	}
	if a.PartnerName == "" {
		a.PartnerName = DefaultAssignment.PartnerName
	}
	if a.EstimatedTime == "" {
		a.EstimatedTime = DefaultAssignment.EstimatedTime
	}
	return &StaticMatcher{assignment: a}
}

// Match returns the configured partner.
func (m *StaticMatcher) Match(ctx context.Context, _ Request) (domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Assignment{}, err
	}
	return m.assignment, nil
}
