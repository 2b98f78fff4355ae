package trading

import (
	"math"
	"strings"
	"time"
)

// TechnicalSignal is the indicator snapshot of one ticker on one date.
type TechnicalSignal struct {
	Ticker        string    `json:"ticker"`
	Date          time.Time `json:"date"`
	SMA20         float64   `json:"sma20"`
	SMA50         float64   `json:"sma50"`
	GoldenCross   bool      `json:"golden_cross"`
	RSI           float64   `json:"rsi"`
	MACD          float64   `json:"macd"`
	SignalLine    float64   `json:"signal_line"`
	MACDBuySignal bool      `json:"macd_buy_signal"`
}

// NewTechnicalSignal builds a signal and derives both flags from the raw indicator values.
func NewTechnicalSignal(ticker string, date time.Time, sma20, sma50, rsi, macd, signalLine float64) TechnicalSignal {
	return TechnicalSignal{
		Ticker:        NormalizeTicker(ticker),
		Date:          date,
		SMA20:         sma20,
		SMA50:         sma50,
		GoldenCross:   sma20 > sma50,
		RSI:           rsi,
		MACD:          macd,
		SignalLine:    signalLine,
		MACDBuySignal: macd > signalLine,
	}
}

// PredictionSignal is the latest model output for a ticker.
type PredictionSignal struct {
	Ticker               string    `json:"ticker"`
	AccuracyPct          float64   `json:"accuracy_pct"`
	RiseProbabilityPct   float64   `json:"rise_probability_pct"`
	LastActualPrice      float64   `json:"last_actual_price"`
	PredictedFuturePrice float64   `json:"predicted_future_price"`
	PredictedRise        bool      `json:"predicted_rise"`
	PredictedAt          time.Time `json:"predicted_at"`
}

// NewPredictionSignal derives PredictedRise from the two prices.
func NewPredictionSignal(ticker string, accuracyPct, riseProbabilityPct, lastActual, predicted float64) PredictionSignal {
	return PredictionSignal{
		Ticker:               NormalizeTicker(ticker),
		AccuracyPct:          accuracyPct,
		RiseProbabilityPct:   riseProbabilityPct,
		LastActualPrice:      lastActual,
		PredictedFuturePrice: predicted,
		PredictedRise:        predicted > lastActual,
	}
}

// SentimentSignal is the aggregated news sentiment for a ticker.
type SentimentSignal struct {
	Ticker       string    `json:"ticker"`
	AvgScore     float64   `json:"avg_sentiment_score"`
	ArticleCount int       `json:"article_count"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// Holding is a position reported by the broker.
type Holding struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	PurchasePrice float64 `json:"purchase_price"`
	Quantity      int64   `json:"quantity"`
	// CurrentPrice is the broker's last reported price, if any.
	CurrentPrice float64 `json:"current_price"`
}

// PriceChangePct returns the percentage move from purchase to current.
func PriceChangePct(purchase, current float64) float64 {
	return (current - purchase) * 100 / purchase
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// TickerSet is a set of normalized ticker symbols.
type TickerSet map[string]struct{}

// NewTickerSet builds a set from the given tickers.
func NewTickerSet(tickers ...string) TickerSet {
	set := make(TickerSet, len(tickers))
	for _, t := range tickers {
		set[NormalizeTicker(t)] = struct{}{}
	}
	return set
}

// Contains reports whether ticker is in the set.
func (s TickerSet) Contains(ticker string) bool {
	_, ok := s[NormalizeTicker(ticker)]
	return ok
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
