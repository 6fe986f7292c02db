package models

import (
	"log"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	ex "bardata/extensions"
)

// BarSeries is pricing data for one asset from one source: OHLCV, and if
// available dividends and stock splits, with price change, dividend yield
// and return computed at construction.
//
// Construction is the only way to obtain one, so every series in
// circulation is non empty, sorted ascending and unique on timestamp.
// Operations never mutate the series, they return fresh values.
type BarSeries struct {
	Source string
	Asset  Asset
	Symbol string

	data []SeriesData
	raw  any
}

// NewBarSeries validates and normalizes rows into a series. Rows are keyed
// by timestamp (the last record wins when the provider repeats one), sorted
// ascending, and the derived columns are recomputed from scratch in order:
// price_change, dividend_yield, return.
func NewBarSeries(data []SeriesData, source string, asset Asset, raw any) (*BarSeries, error) {
	if len(data) == 0 {
		return nil, NoBarDataError{Source: strings.ToUpper(source), Asset: asset}
	}

	keyed := make(map[int64]SeriesData, len(data))
	for _, row := range data {
		keyed[row.Timestamp.UnixNano()] = row
	}

	rows := make([]SeriesData, 0, len(keyed))
	for _, row := range keyed {
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b SeriesData) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	for i := range rows {
		if i == 0 {
			rows[i].PriceChange = null.Float{}
		} else {
			previous := rows[i-1].Close
			rows[i].PriceChange = null.FloatFrom((rows[i].Close - previous) / previous)
		}

		rows[i].DividendYield = 0
		if dividend := rows[i].Dividend.ValueOrZero(); dividend != 0 {
			rows[i].DividendYield = dividend / rows[i].Close
		}

		rows[i].Return = null.Float{}
		if rows[i].PriceChange.Valid {
			rows[i].Return = null.FloatFrom(rows[i].DividendYield + rows[i].PriceChange.Float64)
		}
	}

	return &BarSeries{
		Source: strings.ToUpper(source),
		Asset:  asset,
		Symbol: strings.ToUpper(asset.Symbol),
		data:   rows,
		raw:    raw,
	}, nil
}

// ParseBarList assembles a series from individual bar records. The records
// carry a dividend value, so the resulting series has a dividend column.
func ParseBarList(bars []Bar, source string, asset Asset) (*BarSeries, error) {
	data := make([]SeriesData, 0, len(bars))
	for _, bar := range bars {
		data = append(data, SeriesData{
			Timestamp:   bar.Timestamp,
			Open:        bar.Open,
			High:        bar.High,
			Low:         bar.Low,
			Close:       bar.Close,
			Volume:      bar.Volume,
			Dividend:    null.FloatFrom(bar.Dividend),
			StockSplits: bar.StockSplits,
		})
	}

	return NewBarSeries(data, source, asset, bars)
}

func (bs *BarSeries) Len() int {
	return len(bs.data)
}

// Data returns a copy of the rows in timestamp order.
func (bs *BarSeries) Data() []SeriesData {
	return slices.Clone(bs.data)
}

// Raw returns the source payload the series was parsed from, if the
// source kept it around.
func (bs *BarSeries) Raw() any {
	return bs.raw
}

// Filter returns the rows between start and end, both inclusive. A zero
// time leaves that side unbounded. The result is a plain row slice, not a
// validated series, so an empty window is fine here.
func (bs *BarSeries) Filter(start, end time.Time) []SeriesData {
	predicate := func(row SeriesData) bool {
		if !start.IsZero() && row.Timestamp.Before(start) {
			return false
		}
		if !end.IsZero() && row.Timestamp.After(end) {
			return false
		}
		return true
	}

	return ex.FilterMultiple(bs.data, predicate)
}

// GetLastPrice returns the close of the most recent bar.
func (bs *BarSeries) GetLastPrice() float64 {
	return bs.data[len(bs.data)-1].Close
}

// GetLastDividend returns the dividend of the most recent bar, or 0 with
// a warning when the series was built without a dividend column.
func (bs *BarSeries) GetLastDividend() float64 {
	last := bs.data[len(bs.data)-1]
	if !last.Dividend.Valid {
		log.Printf("unable to find dividend column in bars for %s, returning 0", bs.Symbol)
		return 0
	}
	return last.Dividend.Float64
}

// GetMomentum returns the fractional close to close change over the
// filtered window, 0 when the window is empty.
func (bs *BarSeries) GetMomentum(start, end time.Time) float64 {
	rows := bs.Filter(start, end)
	if len(rows) == 0 {
		return 0
	}

	first := rows[0].Close
	last := rows[len(rows)-1].Close
	return (last - first) / first
}

// GetTotalVolume returns the summed volume over the filtered window.
func (bs *BarSeries) GetTotalVolume(start, end time.Time) float64 {
	rows := bs.Filter(start, end)
	volumes := make([]float64, len(rows))
	for i, row := range rows {
		volumes[i] = row.Volume
	}
	return ex.Sum(volumes)
}

// AggregateBars converts the series to a coarser timeframe, eg. 1 min bars
// to 15 min bars. Buckets take open from their first bar, close from their
// last, the min low, the max high and the summed volume. Buckets with no
// bars simply never appear. The result goes through NewBarSeries again, so
// derived columns are recomputed and the dividend column is not carried
// over.
func (bs *BarSeries) AggregateBars(frequency string) (*BarSeries, error) {
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}

	// rows are sorted, so bucket starts come out monotone and the last
	// bucket is always the one still being filled
	var buckets []SeriesData
	for _, row := range bs.data {
		start := freq.Floor(row.Timestamp)
		if len(buckets) > 0 && buckets[len(buckets)-1].Timestamp.Equal(start) {
			last := &buckets[len(buckets)-1]
			last.Close = row.Close
			last.Low = ex.Min(last.Low, row.Low)
			last.High = ex.Max(last.High, row.High)
			last.Volume += row.Volume
			continue
		}

		buckets = append(buckets, SeriesData{
			Timestamp: start,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}

	return NewBarSeries(buckets, bs.Source, bs.Asset, nil)
}

// Split decomposes the series into plain bar records in timestamp order,
// substituting 0 where dividend or stock split data was never present.
func (bs *BarSeries) Split() []Bar {
	result := make([]Bar, 0, len(bs.data))
	for _, row := range bs.data {
		result = append(result, Bar{
			Timestamp:   row.Timestamp,
			Open:        row.Open,
			High:        row.High,
			Low:         row.Low,
			Close:       row.Close,
			Volume:      row.Volume,
			Dividend:    row.Dividend.ValueOrZero(),
			StockSplits: row.StockSplits,
		})
	}
	return result
}
