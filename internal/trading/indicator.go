package trading

import (
	"fmt"
	"time"
)

// Indicator periods.
const (
	ShortSMAPeriod   = 20
	LongSMAPeriod    = 50
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9

	// MinHistory is the number of closes needed for every indicator.
	MinHistory = LongSMAPeriod
)

// ComputeTechnicalSignal derives the indicator snapshot from daily closes in
// chronological order. The last close is the as-of value.
func ComputeTechnicalSignal(ticker string, date time.Time, closes []float64) (TechnicalSignal, error) {
	if len(closes) < MinHistory {
		return TechnicalSignal{}, fmt.Errorf("%w: %s has %d closes, need %d", ErrInsufficientHistory, NormalizeTicker(ticker), len(closes), MinHistory)
	}
	for i, c := range closes {
		if !validPrice(c) {
			return TechnicalSignal{}, fmt.Errorf("%w: %s close #%d is %v", ErrInvalidPriceData, NormalizeTicker(ticker), i, c)
		}
	}

	macd, signal := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	return NewTechnicalSignal(
		ticker,
		date,
		SMA(closes, ShortSMAPeriod),
		SMA(closes, LongSMAPeriod),
		RSI(closes, RSIPeriod),
		macd,
		signal,
	), nil
}

// SMA is the mean of the last period values. Callers guarantee len(values) >= period.
func SMA(values []float64, period int) float64 {
	window := values[len(values)-period:]
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(period)
}

// EMASeries is the exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI uses simple rolling means of gains and losses over the last period
// changes. With no losses it is 100; with no movement at all it is 50.
func RSI(values []float64, period int) float64 {
	gain, loss := 0.0, 0.0
	for i := len(values) - period; i < len(values); i++ {
		if i < 1 {
			continue
		}
		delta := values[i] - values[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	switch {
	case loss == 0 && gain == 0:
		return 50
	case loss == 0:
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// MACD returns the last MACD line and signal line values.
func MACD(values []float64, fast, slow, signal int) (float64, float64) {
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	return line[len(line)-1], sig[len(sig)-1]
}
