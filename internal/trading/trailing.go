package trading

import (
	"fmt"
	"time"
)

// TrailingStop is the per-holding trailing stop state. The dynamic stop only
// ever moves up.
type TrailingStop struct {
	Ticker           string    `json:"ticker"`
	PurchasePrice    float64   `json:"purchase_price"`
	HighestPrice     float64   `json:"highest_price"`
	HighestPriceAt   time.Time `json:"highest_price_at"`
	DistancePct      float64   `json:"distance_pct"`
	DynamicStopPrice float64   `json:"dynamic_stop_price"`
	Leveraged        bool      `json:"leveraged"`
	Active           bool      `json:"active"`
}

// NewTrailingStop initializes the state at purchase time.
func NewTrailingStop(ticker string, purchasePrice, distancePct float64, leveraged bool, at time.Time) (TrailingStop, error) {
	if !validPrice(purchasePrice) {
		return TrailingStop{}, fmt.Errorf("%w: purchase price %v", ErrInvalidPriceData, purchasePrice)
	}
	if !finite(distancePct) || distancePct <= 0 || distancePct >= 100 {
		return TrailingStop{}, configErr("trailing_stop.distance_pct", distancePct, "must be within (0, 100)")
	}
	return TrailingStop{
		Ticker:           NormalizeTicker(ticker),
		PurchasePrice:    purchasePrice,
		HighestPrice:     purchasePrice,
		HighestPriceAt:   at,
		DistancePct:      distancePct,
		DynamicStopPrice: purchasePrice * (1 - distancePct/100),
		Leveraged:        leveraged,
		Active:           true,
	}, nil
}

// Observe records a new price. It returns the updated state and whether the
// high-water mark moved.
func (t TrailingStop) Observe(price float64, at time.Time) (TrailingStop, bool) {
	if !t.Active || !validPrice(price) || price <= t.HighestPrice {
		return t, false
	}
	stop := price * (1 - t.DistancePct/100)
	if stop <= t.DynamicStopPrice {
		return t, false
	}
	t.HighestPrice = price
	t.HighestPriceAt = at
	t.DynamicStopPrice = stop
	return t, true
}

// Triggered reports whether price has fallen to the dynamic stop while the
// position still carries at least minProfitPct of profit.
func (t TrailingStop) Triggered(price, minProfitPct float64) bool {
	if !t.Active || !validPrice(price) || !validPrice(t.PurchasePrice) {
		return false
	}
	if PriceChangePct(t.PurchasePrice, price) < minProfitPct {
		return false
	}
	return price <= t.DynamicStopPrice
}
