// Package models provides domain models for the fill-probability engine.
package models

import "time"

// OrderSide represents the side of a resting limit order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Valid reports whether the side is one of the known values.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OptionType represents the type of an option contract.
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// Valid reports whether the option type is one of the known values.
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// OptionGreeks represents option price sensitivities from an upstream
// option-chain provider.
type OptionGreeks struct {
	Delta float64
	Gamma float64
	Theta float64 // per day
	Vega  float64
	IV    float64 // implied volatility, annualized
}

// OptionQuote is a market snapshot of a single option contract.
type OptionQuote struct {
	Symbol    string
	Strike    float64
	Expiry    time.Time
	Type      OptionType
	LastPrice float64 // current option price
	SpotPrice float64 // underlying price
	Greeks    OptionGreeks
}

// Closes extracts the closing prices from a candle series, oldest first.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
