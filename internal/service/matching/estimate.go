package matching

import (
	"fmt"

	"service-fulfillment/internal/domain"
)

type defaultEstimateFactory struct{}

// NewEstimateFactory - creates the default transport based EstimateFactory.
func NewEstimateFactory() EstimateFactory {
	return defaultEstimateFactory{}
}

// Estimate returns the arrival window for the transport type.
func (defaultEstimateFactory) Estimate(transport domain.TransportType) (string, error) {
	switch transport {
	case domain.TransportFoot:
		return "25-30 min", nil
	case domain.TransportScooter:
		return "15-20 min", nil
	case domain.TransportCar:
		return "10-15 min", nil
	default:
		return "", fmt.Errorf("unknown transport type: %s", transport)
	}
}
