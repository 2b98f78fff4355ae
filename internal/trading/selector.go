package trading

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Candidate bundles the inputs for one ticker.
type Candidate struct {
	Ticker     string
	Technical  TechnicalSignal
	Prediction *PredictionSignal
	Sentiment  *SentimentSignal
	// QuotePrice is the live broker quote. When zero the prediction's last
	// actual price is used instead.
	QuotePrice float64
}

// OrderIntent is a buy the caller may submit to the broker.
type OrderIntent struct {
	Ticker            string          `json:"ticker"`
	EstimatedQuantity int64           `json:"estimated_quantity"`
	EstimatedPrice    decimal.Decimal `json:"estimated_price"`
	EstimatedAmount   decimal.Decimal `json:"estimated_amount"`
	CompositeScore    float64         `json:"composite_score"`
	Priority          int             `json:"priority"`
	Decision          BuyDecision     `json:"buy_decision"`
	Rationale         string          `json:"rationale"`
}

// Selector ranks candidates and turns the best into order intents.
type Selector struct {
	scorer *Scorer
}

func NewSelector(scorer *Scorer) *Selector {
	return &Selector{scorer: scorer}
}

type ranked struct {
	rec   CompositeRecommendation
	price float64
}

// Rank scores every candidate and returns them in buy order. Candidates that
// cannot be scored are omitted. Duplicate tickers keep their first occurrence.
func (s *Selector) Rank(candidates []Candidate) []CompositeRecommendation {
	items := s.rank(candidates)
	out := make([]CompositeRecommendation, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

func (s *Selector) rank(candidates []Candidate) []ranked {
	seen := make(map[string]struct{}, len(candidates))
	items := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		rec, err := s.scorer.Score(c.Technical, c.Prediction, c.Sentiment)
		if err != nil {
			continue
		}
		if t := NormalizeTicker(c.Ticker); t != "" {
			rec.Ticker = t
		}
		if _, dup := seen[rec.Ticker]; dup {
			continue
		}
		seen[rec.Ticker] = struct{}{}

		price := c.QuotePrice
		if !validPrice(price) {
			price = c.Prediction.LastActualPrice
		}
		items = append(items, ranked{rec: rec, price: price})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i].rec, items[j].rec)
	})
	return items
}

// Select returns at most maxCount order intents for eligible, not-yet-held
// tickers. Each intent spends min(perStockCap, remaining cash); a candidate
// that cannot afford one share is skipped and the walk continues. Cash is
// drawn down locally so intents never exceed availableCash in total. The
// inputs are not modified.
func (s *Selector) Select(candidates []Candidate, held TickerSet, availableCash, perStockCap decimal.Decimal, maxCount int) []OrderIntent {
	intents := make([]OrderIntent, 0)
	if maxCount <= 0 {
		return intents
	}

	remaining := availableCash
	for _, it := range s.rank(candidates) {
		if len(intents) >= maxCount || !remaining.IsPositive() {
			break
		}
		if !it.rec.Eligible || held.Contains(it.rec.Ticker) {
			continue
		}

		amount := decimal.Min(perStockCap, remaining)
		price := decimal.NewFromFloat(it.price)
		qty := amount.Div(price).Floor().IntPart()
		if qty < 1 {
			continue
		}

		cost := price.Mul(decimal.NewFromInt(qty))
		remaining = remaining.Sub(cost)
		intents = append(intents, OrderIntent{
			Ticker:            it.rec.Ticker,
			EstimatedQuantity: qty,
			EstimatedPrice:    price,
			EstimatedAmount:   cost,
			CompositeScore:    it.rec.CompositeScore,
			Priority:          it.rec.Priority,
			Decision:          it.rec.Decision,
			Rationale:         it.rec.Rationale,
		})
	}
	return intents
}
