// Package trading is the decision engine of the auto trader.
//
// It fuses technical, prediction and sentiment signals into a ranked buy list
// and decides when held positions should be sold. Everything here is a pure
// function of its inputs: no I/O, no clocks, no shared state. Callers can use
// it concurrently across tickers.
package trading
