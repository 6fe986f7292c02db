package models

import "fmt"

// NoBarDataError is returned when a source produced no rows for an asset.
// Construction of a BarSeries is the validation gate, so an empty series
// can never exist.
type NoBarDataError struct {
	Source string
	Asset  Asset
}

func (e NoBarDataError) Error() string {
	return fmt.Sprintf("%s did not return data for symbol %s, make sure there is no symbol typo or use another data source", e.Source, e.Asset.Symbol)
}

// UnknownTimestepError is a configuration error, an unrecognized generic
// timestep token. It is raised before any network call is made.
type UnknownTimestepError struct {
	Timestep string
}

func (e UnknownTimestepError) Error() string {
	return fmt.Sprintf("unknown timestep %s, must be one of %v", e.Timestep, Timesteps())
}

// UnknownFrequencyError is a configuration error, an unparsable
// aggregation frequency token.
type UnknownFrequencyError struct {
	Frequency string
}

func (e UnknownFrequencyError) Error() string {
	return fmt.Sprintf("unknown aggregation frequency %s, expected a token like 15Min, 1H or 1D", e.Frequency)
}
