package core

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	ex "bardata/extensions"
	m "bardata/models"
)

// annualization factors by bar granularity
const (
	Daily   = 252
	Weekly  = 52
	Monthly = 12
	Yearly  = 1

	// trading minutes per day, for annualizing minute bars
	MinutesPerTradingDay = 390
)

// SeriesStatistics summarizes the return profile of one bar series.
// From and To are the dates of the first and last bar covered.
type SeriesStatistics struct {
	Symbol               string  `json:"symbol"`
	Bars                 int     `json:"bars"`
	From                 string  `json:"from"`
	To                   string  `json:"to"`
	TotalReturn          float64 `json:"total_return"`
	MeanPeriodReturn     float64 `json:"mean_period_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	ReturnP5             float64 `json:"return_p5"`
	ReturnP95            float64 `json:"return_p95"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

// AnnualizationFactor returns periods per year for a bar granularity.
func AnnualizationFactor(timestep m.Timestep) int {
	switch timestep {
	case m.TimestepMinute:
		return Daily * MinutesPerTradingDay
	default:
		return Daily
	}
}

// GetSeriesStatistics computes return statistics over the series' return
// column. The first row carries no return and is skipped.
func GetSeriesStatistics(bars *m.BarSeries, annualizationFactor int) *SeriesStatistics {
	rows := bars.Data()

	returns := make([]float64, 0, len(rows))
	for _, row := range rows {
		if row.Return.Valid {
			returns = append(returns, row.Return.Float64)
		}
	}

	res := &SeriesStatistics{
		Symbol:      bars.Symbol,
		Bars:        len(rows),
		From:        ex.FmtShort(rows[0].Timestamp),
		To:          ex.FmtShort(rows[len(rows)-1].Timestamp),
		TotalReturn: bars.GetMomentum(time.Time{}, time.Time{}),
		MaxDrawdown: calculateMaxDrawdown(rows),
	}

	if len(returns) == 0 {
		return res
	}

	res.MeanPeriodReturn = stat.Mean(returns, nil)
	res.AnnualizedReturn = res.MeanPeriodReturn * float64(annualizationFactor)
	if len(returns) > 1 {
		res.AnnualizedVolatility = stat.StdDev(returns, nil) * math.Sqrt(float64(annualizationFactor))
	}

	// stat.Quantile requires the slice to be sorted in increasing order
	slices.Sort(returns)
	res.ReturnP5 = stat.Quantile(0.05, stat.Empirical, returns, nil)
	res.ReturnP95 = stat.Quantile(0.95, stat.Empirical, returns, nil)

	return res
}

func calculateMaxDrawdown(rows []m.SeriesData) float64 {
	var maxDrawdown, peak float64
	for _, row := range rows {
		if row.Close > peak {
			peak = row.Close
		}

		drawdown := (peak - row.Close) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
