package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Bar is a single point-in-time OHLCV record. Dividend and StockSplits
// default to 0 when the provider does not supply them.
type Bar struct {
	Timestamp   time.Time `json:"timestamp"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	Dividend    float64   `json:"dividend"`
	StockSplits float64   `json:"stock_splits"`
}

// SeriesData is one row of a BarSeries: the bar columns plus the derived
// columns computed at construction.
//
// Dividend is null when the series was built without a dividend column
// (aggregation output). PriceChange and Return are null on the first row,
// there is no previous close to change from.
type SeriesData struct {
	Timestamp     time.Time  `json:"timestamp"`
	Open          float64    `json:"open"`
	High          float64    `json:"high"`
	Low           float64    `json:"low"`
	Close         float64    `json:"close"`
	Volume        float64    `json:"volume"`
	Dividend      null.Float `json:"dividend"`
	StockSplits   float64    `json:"stock_splits"`
	PriceChange   null.Float `json:"price_change"`
	DividendYield float64    `json:"dividend_yield"`
	Return        null.Float `json:"return"`
}
