package core

import (
	"time"

	"github.com/guregu/null/v6"

	"bardata/api/alpaca"
	ex "bardata/extensions"
	m "bardata/models"
)

// public
const (
	Source      = "alpaca"
	MinTimestep = m.TimestepMinute
)

type timestepRepresentations struct {
	timestep        m.Timestep
	representations []string
}

// the provider's vocabulary for each generic timestep, the first
// representation is what goes on the wire
var timestepMapping = []timestepRepresentations{
	{timestep: m.TimestepMinute, representations: []string{"1Min", "minute"}},
	{timestep: m.TimestepDay, representations: []string{"1D", "day"}},
}

// parseSourceTimestep translates a generic timestep into the provider's
// native token. Unknown timesteps fail here, before anything touches the
// network.
func parseSourceTimestep(timestep m.Timestep) (string, error) {
	mapping := ex.FilterFirst(timestepMapping, func(tr timestepRepresentations) bool {
		return tr.timestep == timestep
	})

	if len(mapping.representations) == 0 {
		return "", m.UnknownTimestepError{Timestep: string(timestep)}
	}

	return mapping.representations[0], nil
}

// parseTimestep resolves user input to a generic timestep. It accepts the
// generic vocabulary and any of the provider representations, so "minute"
// and "1Min" mean the same thing.
func parseTimestep(input string) (m.Timestep, error) {
	if timestep, err := m.ParseTimestep(input); err == nil {
		return timestep, nil
	}

	for _, mapping := range timestepMapping {
		for _, representation := range mapping.representations {
			if ex.AreEqual(representation, input) {
				return mapping.timestep, nil
			}
		}
	}

	return "", m.UnknownTimestepError{Timestep: input}
}

// formatDatetime is the single place instants become wire timestamps.
// Values carrying time.Local are treated as wall clock readings in the
// market timezone, anything else already knows its zone and formats as
// is, ISO 8601 either way.
func (sc *ServiceContext) formatDatetime(dt time.Time) string {
	if dt.Location() == time.Local {
		dt = time.Date(dt.Year(), dt.Month(), dt.Day(), dt.Hour(), dt.Minute(), dt.Second(), dt.Nanosecond(), sc.Location)
	}
	return ex.FmtLong(dt)
}

// PullBars fetches raw frames for a list of symbols in one provider call.
// length caps the bars per symbol and timeshift moves the window end back
// from now, zero means no end parameter at all. Provider errors come back
// untouched.
func (sc *ServiceContext) PullBars(symbols []string, length int, timestep m.Timestep, timeshift time.Duration) (alpaca.BarSet, error) {
	parsedTimestep, err := parseSourceTimestep(timestep)
	if err != nil {
		return nil, err
	}

	end := ""
	if timeshift != 0 {
		end = sc.formatDatetime(time.Now().Add(-timeshift))
	}

	return sc.AlpacaClient.GetBars(parsedTimestep, symbols, length, end)
}

// PullSymbolBars fetches the raw frame for a single symbol.
func (sc *ServiceContext) PullSymbolBars(asset m.Asset, length int, timestep m.Timestep, timeshift time.Duration) ([]alpaca.Bar, error) {
	response, err := sc.PullBars([]string{asset.Symbol}, length, timestep, timeshift)
	if err != nil {
		return nil, err
	}
	return response[asset.Symbol], nil
}

// ParseSymbolBars normalizes one raw frame into a series. Timestamps come
// off the wire as epochs and land timezone aware in the market timezone.
// The dividend column is present and zero, this source does not supply
// dividends.
func (sc *ServiceContext) ParseSymbolBars(frame []alpaca.Bar, asset m.Asset) (*m.BarSeries, error) {
	data := make([]m.SeriesData, 0, len(frame))
	for _, bar := range frame {
		data = append(data, m.SeriesData{
			Timestamp: bar.GetTime().In(sc.Location),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
			Dividend:  null.FloatFrom(0),
		})
	}

	return m.NewBarSeries(data, Source, asset, frame)
}

// ParseBars normalizes a raw multi symbol response, one series per asset.
// An asset the response has nothing for fails the whole parse with
// NoBarDataError, same as the single symbol path.
func (sc *ServiceContext) ParseBars(response alpaca.BarSet, assets []m.Asset) (map[string]*m.BarSeries, error) {
	result := make(map[string]*m.BarSeries, len(assets))
	for _, asset := range assets {
		series, err := sc.ParseSymbolBars(response[asset.Symbol], asset)
		if err != nil {
			return nil, err
		}
		result[asset.Symbol] = series
	}
	return result, nil
}

// GetSymbolBars pulls and normalizes bars for one asset. An empty
// timestep means the finest granularity the source offers.
func (sc *ServiceContext) GetSymbolBars(asset m.Asset, length int, timestep string, timeshift time.Duration) (*m.BarSeries, error) {
	parsed := MinTimestep
	if timestep != "" {
		var err error
		parsed, err = parseTimestep(timestep)
		if err != nil {
			return nil, err
		}
	}

	frame, err := sc.PullSymbolBars(asset, length, parsed, timeshift)
	if err != nil {
		return nil, err
	}

	return sc.ParseSymbolBars(frame, asset)
}
