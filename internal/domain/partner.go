package domain

// TransportType represents how a delivery partner moves.
type TransportType string

// List of possible partner transport types
const (
	TransportFoot    TransportType = "on_foot"
	TransportScooter TransportType = "scooter"
	TransportCar     TransportType = "car"
)

var allowedTransportTypes = [...]TransportType{TransportFoot, TransportScooter, TransportCar}

// Valid checks if the TransportType is valid
func (t TransportType) Valid() bool {
	for _, v := range allowedTransportTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Partner is a courier that can be matched to orders.
type Partner struct {
	ID        int64
	Name      string
	Transport TransportType
}
