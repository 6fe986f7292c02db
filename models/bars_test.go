package models

import (
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	ex "bardata/extensions"
)

var seriesStart = time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)

// Helper: consecutive minute rows with the given closes, volumes climbing 10, 20, 30, ...
func getMinuteRows(t *testing.T, closes []float64) []SeriesData {
	t.Helper()

	rows := make([]SeriesData, len(closes))
	for i, close := range closes {
		rows[i] = SeriesData{
			Timestamp: seriesStart.Add(time.Duration(i) * time.Minute),
			Open:      close - 1,
			High:      close + 1,
			Low:       close - 2,
			Close:     close,
			Volume:    float64((i + 1) * 10),
			Dividend:  null.FloatFrom(0),
		}
	}

	return rows
}

// Helper: validated minute series over the given closes
func getTestSeries(t *testing.T, closes []float64) *BarSeries {
	t.Helper()

	series, err := NewBarSeries(getMinuteRows(t, closes), "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	return series
}

func TestNewBarSeriesComputesDerivedColumns(t *testing.T) {
	rows := getMinuteRows(t, []float64{100, 101, 99})
	rows[1].Dividend = null.FloatFrom(0.5)

	series, err := NewBarSeries(rows, "alpaca", NewAsset("aapl"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	ex.AssertAreEqual(t, "source", "ALPACA", series.Source)
	ex.AssertAreEqual(t, "symbol", "AAPL", series.Symbol)

	data := series.Data()
	if len(data) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(data))
	}

	// the first row has no previous close, so no change and no return
	ex.AssertNillability(t, "price change", true, data[0].PriceChange.Ptr())
	ex.AssertNillability(t, "return", true, data[0].Return.Ptr())
	ex.AssertAreEqual(t, "dividend yield", 0, data[0].DividendYield)

	expectedChange := (101.0 - 100.0) / 100.0
	expectedYield := 0.5 / 101.0
	ex.AssertAreEqual(t, "price change", expectedChange, data[1].PriceChange.Float64)
	ex.AssertAreEqual(t, "dividend yield", expectedYield, data[1].DividendYield)
	ex.AssertAreEqual(t, "return", expectedYield+expectedChange, data[1].Return.Float64)

	// no dividend on the last row, return collapses to the price change
	expectedChange = (99.0 - 101.0) / 101.0
	ex.AssertAreEqual(t, "price change", expectedChange, data[2].PriceChange.Float64)
	ex.AssertAreEqual(t, "return", expectedChange, data[2].Return.Float64)
}

func TestNewBarSeriesEmptyTableFails(t *testing.T) {
	_, err := NewBarSeries(nil, "alpaca", NewAsset("AAPL"), nil)
	if err == nil {
		t.Fatalf("Expected an error for an empty table")
	}

	var noData NoBarDataError
	if !errors.As(err, &noData) {
		t.Fatalf("Expected NoBarDataError, got %T", err)
	}
	if noData.Source != "ALPACA" {
		t.Errorf("Expected error source ALPACA, got %s", noData.Source)
	}
	if noData.Asset.Symbol != "AAPL" {
		t.Errorf("Expected error asset AAPL, got %s", noData.Asset.Symbol)
	}
}

func TestNewBarSeriesSortsAndDeduplicates(t *testing.T) {
	rows := getMinuteRows(t, []float64{100, 101, 99})

	// shuffle the order and repeat the middle timestamp with a new close,
	// the later record should win
	duplicate := rows[1]
	duplicate.Close = 150
	shuffled := []SeriesData{rows[2], rows[1], rows[0], duplicate}

	series, err := NewBarSeries(shuffled, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("Expected 3 rows after dedupe, got %d", series.Len())
	}

	data := series.Data()
	for i := 1; i < len(data); i++ {
		if !data[i-1].Timestamp.Before(data[i].Timestamp) {
			t.Errorf("Expected strictly ascending timestamps, got %v before %v", data[i-1].Timestamp, data[i].Timestamp)
		}
	}

	if data[1].Close != 150 {
		t.Errorf("Expected the last duplicate record to win with close 150, got %v", data[1].Close)
	}
}

func TestFilterIsInclusiveOnBothEnds(t *testing.T) {
	series := getTestSeries(t, []float64{100, 101, 99, 102, 98})
	data := series.Data()

	rows := series.Filter(data[1].Timestamp, data[3].Timestamp)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows in the window, got %d", len(rows))
	}
	if !rows[0].Timestamp.Equal(data[1].Timestamp) {
		t.Errorf("Expected window to include the start bound, got %v", rows[0].Timestamp)
	}
	if !rows[2].Timestamp.Equal(data[3].Timestamp) {
		t.Errorf("Expected window to include the end bound, got %v", rows[2].Timestamp)
	}

	// zero times leave the window unbounded
	rows = series.Filter(time.Time{}, time.Time{})
	if len(rows) != series.Len() {
		t.Errorf("Expected the full series, got %d rows", len(rows))
	}

	rows = series.Filter(time.Time{}, data[2].Timestamp)
	if len(rows) != 3 {
		t.Errorf("Expected 3 rows up to the end bound, got %d", len(rows))
	}

	// an empty window is an empty slice, not an error
	rows = series.Filter(seriesStart.Add(time.Hour), time.Time{})
	if len(rows) != 0 {
		t.Errorf("Expected no rows after the series, got %d", len(rows))
	}
}

func TestGetMomentumAndTotalVolume(t *testing.T) {
	series := getTestSeries(t, []float64{100, 101, 99})
	data := series.Data()

	momentum := series.GetMomentum(data[0].Timestamp, data[2].Timestamp)
	if momentum != (99.0-100.0)/100.0 {
		t.Errorf("Expected momentum %v, got %v", (99.0-100.0)/100.0, momentum)
	}

	volume := series.GetTotalVolume(data[0].Timestamp, data[2].Timestamp)
	if volume != 60 {
		t.Errorf("Expected total volume 60, got %v", volume)
	}

	// unbounded totals cover the whole column
	volume = series.GetTotalVolume(time.Time{}, time.Time{})
	if volume != 60 {
		t.Errorf("Expected total volume 60 unbounded, got %v", volume)
	}

	// an empty window has no momentum
	momentum = series.GetMomentum(seriesStart.Add(time.Hour), time.Time{})
	if momentum != 0 {
		t.Errorf("Expected momentum 0 for an empty window, got %v", momentum)
	}
}

func TestGetLastPriceAndLastDividend(t *testing.T) {
	rows := getMinuteRows(t, []float64{100, 101, 99})
	rows[2].Dividend = null.FloatFrom(0.25)

	series, err := NewBarSeries(rows, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	if series.GetLastPrice() != 99 {
		t.Errorf("Expected last price 99, got %v", series.GetLastPrice())
	}
	if series.GetLastDividend() != 0.25 {
		t.Errorf("Expected last dividend 0.25, got %v", series.GetLastDividend())
	}

	// aggregation drops the dividend column, the getter warns and falls
	// back to 0
	aggregated, err := series.AggregateBars("15Min")
	if err != nil {
		t.Fatalf("Failed to aggregate series: %v", err)
	}
	if aggregated.GetLastDividend() != 0 {
		t.Errorf("Expected last dividend 0 without a dividend column, got %v", aggregated.GetLastDividend())
	}
}

func TestAggregateBarsIntoSingleBucket(t *testing.T) {
	opens := []float64{100, 101, 102, 100}
	closes := []float64{101, 102, 100, 103}
	lows := []float64{99, 100, 98, 99}
	highs := []float64{102, 103, 103, 104}

	rows := make([]SeriesData, 4)
	for i := range rows {
		rows[i] = SeriesData{
			Timestamp: seriesStart.Add(time.Duration(i) * time.Minute),
			Open:      opens[i],
			High:      highs[i],
			Low:       lows[i],
			Close:     closes[i],
			Volume:    float64((i + 1) * 10),
			Dividend:  null.FloatFrom(0),
		}
	}

	series, err := NewBarSeries(rows, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	aggregated, err := series.AggregateBars("4Min")
	if err != nil {
		t.Fatalf("Failed to aggregate series: %v", err)
	}

	if aggregated.Len() != 1 {
		t.Fatalf("Expected 1 bucket, got %d", aggregated.Len())
	}

	bucket := aggregated.Data()[0]
	ex.AssertAreEqual(t, "open", 100, bucket.Open)
	ex.AssertAreEqual(t, "close", 103, bucket.Close)
	ex.AssertAreEqual(t, "low", 98, bucket.Low)
	ex.AssertAreEqual(t, "high", 104, bucket.High)
	ex.AssertAreEqual(t, "volume", 100, bucket.Volume)
	ex.AssertNillability(t, "dividend", true, bucket.Dividend.Ptr())
}

func TestAggregateBarsSkipsEmptyBuckets(t *testing.T) {
	rows := getMinuteRows(t, []float64{100, 101})

	// a third bar 45 minutes later leaves two 15 minute buckets in
	// between with nothing in them, they should not appear at all
	late := rows[1]
	late.Timestamp = seriesStart.Add(45 * time.Minute)
	late.Close = 105
	rows = append(rows, late)

	series, err := NewBarSeries(rows, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	aggregated, err := series.AggregateBars("15Min")
	if err != nil {
		t.Fatalf("Failed to aggregate series: %v", err)
	}

	if aggregated.Len() != 2 {
		t.Fatalf("Expected 2 buckets, got %d", aggregated.Len())
	}

	data := aggregated.Data()
	if !data[0].Timestamp.Equal(seriesStart) {
		t.Errorf("Expected first bucket at %v, got %v", seriesStart, data[0].Timestamp)
	}
	if !data[1].Timestamp.Equal(seriesStart.Add(45 * time.Minute)) {
		t.Errorf("Expected second bucket at %v, got %v", seriesStart.Add(45*time.Minute), data[1].Timestamp)
	}
}

func TestAggregateBarsDailyIsIdempotent(t *testing.T) {
	rows := make([]SeriesData, 3)
	for i := range rows {
		rows[i] = SeriesData{
			Timestamp: time.Date(2024, time.January, 2+i, 0, 0, 0, 0, time.UTC),
			Open:      100 + float64(i),
			High:      105 + float64(i),
			Low:       95 + float64(i),
			Close:     101 + float64(i),
			Volume:    1000,
			Dividend:  null.FloatFrom(0),
		}
	}

	series, err := NewBarSeries(rows, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	aggregated, err := series.AggregateBars("1D")
	if err != nil {
		t.Fatalf("Failed to aggregate series: %v", err)
	}

	if aggregated.Len() != series.Len() {
		t.Fatalf("Expected %d buckets, got %d", series.Len(), aggregated.Len())
	}

	before := series.Data()
	after := aggregated.Data()
	for i := range after {
		if after[i].Open != before[i].Open || after[i].Close != before[i].Close ||
			after[i].Low != before[i].Low || after[i].High != before[i].High ||
			after[i].Volume != before[i].Volume {
			t.Errorf("Bucket %d: expected bar to survive daily aggregation unchanged, got %+v", i, after[i])
		}
	}

	if aggregated.GetTotalVolume(time.Time{}, time.Time{}) != series.GetTotalVolume(time.Time{}, time.Time{}) {
		t.Errorf("Expected total volume to be preserved by aggregation")
	}
}

func TestAggregateBarsUnknownFrequency(t *testing.T) {
	series := getTestSeries(t, []float64{100, 101})

	_, err := series.AggregateBars("2fortnight")
	if err == nil {
		t.Fatalf("Expected an error for an unknown frequency")
	}

	var unknown UnknownFrequencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownFrequencyError, got %T", err)
	}
	if unknown.Frequency != "2fortnight" {
		t.Errorf("Expected the error to carry the token, got %s", unknown.Frequency)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	rows := getMinuteRows(t, []float64{100, 101, 99})
	rows[1].Dividend = null.FloatFrom(0.5)

	series, err := NewBarSeries(rows, "alpaca", NewAsset("AAPL"), nil)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}

	bars := series.Split()
	if len(bars) != series.Len() {
		t.Fatalf("Expected %d bars, got %d", series.Len(), len(bars))
	}
	if bars[1].Dividend != 0.5 {
		t.Errorf("Expected dividend 0.5 on the second bar, got %v", bars[1].Dividend)
	}

	rebuilt, err := ParseBarList(bars, series.Source, series.Asset)
	if err != nil {
		t.Fatalf("Failed to rebuild series: %v", err)
	}

	before := series.Data()
	after := rebuilt.Data()
	for i := range after {
		if !after[i].Timestamp.Equal(before[i].Timestamp) {
			t.Errorf("Row %d: expected timestamp %v, got %v", i, before[i].Timestamp, after[i].Timestamp)
		}
		if after[i].Open != before[i].Open || after[i].High != before[i].High ||
			after[i].Low != before[i].Low || after[i].Close != before[i].Close ||
			after[i].Volume != before[i].Volume {
			t.Errorf("Row %d: expected raw columns to round trip, got %+v", i, after[i])
		}
		if after[i].Return != before[i].Return {
			t.Errorf("Row %d: expected derived columns to be recomputed identically", i)
		}
	}

	// the raw payload sticks to whatever it was built from
	if rebuilt.Raw() == nil {
		t.Errorf("Expected the rebuilt series to keep its raw bars")
	}
}
