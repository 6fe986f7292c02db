package models

import (
	ex "bardata/extensions"
)

// Timestep is the generic bar granularity vocabulary. Callers speak in
// these tokens, data sources translate them to whatever their provider
// understands.
type Timestep string

const (
	TimestepMinute Timestep = "minute"
	TimestepDay    Timestep = "day"
)

func Timesteps() []Timestep {
	return []Timestep{TimestepMinute, TimestepDay}
}

// ParseTimestep matches a token against the generic vocabulary, case
// insensitively.
func ParseTimestep(s string) (Timestep, error) {
	f := func(t Timestep) bool { return ex.AreEqual(string(t), s) }
	res, err := ex.FilterSingle(Timesteps(), f)
	if err != nil {
		return "", UnknownTimestepError{Timestep: s}
	}
	return res, nil
}
