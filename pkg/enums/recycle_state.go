package enums

// RecycleState is the explicit state of a recycling session.
type RecycleState string

const (
	RecycleStateIdle                 RecycleState = "idle"
	RecycleStateAwaitingProductScan  RecycleState = "awaiting_product_scan"
	RecycleStateAwaitingRetailerScan RecycleState = "awaiting_retailer_scan"
	RecycleStateConfirming           RecycleState = "confirming"
	RecycleStateSubmitted            RecycleState = "submitted"
)

var validRecycleStates = []RecycleState{
	RecycleStateIdle,
	RecycleStateAwaitingProductScan,
	RecycleStateAwaitingRetailerScan,
	RecycleStateConfirming,
	RecycleStateSubmitted,
}

func (s RecycleState) String() string {
	return string(s)
}

func (s RecycleState) IsValid() bool {
	for _, candidate := range validRecycleStates {
		if candidate == s {
			return true
		}
	}
	return false
}
