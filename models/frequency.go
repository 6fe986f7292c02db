package models

import (
	"fmt"
	"time"

	ex "bardata/extensions"
)

// FrequencyUnit specifies the unit of an aggregation bucket width.
type FrequencyUnit uint8

const (
	FrequencyUnitMinute FrequencyUnit = iota
	FrequencyUnitHour
	FrequencyUnitDay
)

func (u FrequencyUnit) Name() string {
	switch u {
	case FrequencyUnitMinute:
		return "FrequencyUnitMinute"
	case FrequencyUnitHour:
		return "FrequencyUnitHour"
	case FrequencyUnitDay:
		return "FrequencyUnitDay"
	default:
		return ""
	}
}

func (u FrequencyUnit) Token() string {
	switch u {
	case FrequencyUnitMinute:
		return "Min"
	case FrequencyUnitHour:
		return "H"
	case FrequencyUnitDay:
		return "D"
	default:
		return ""
	}
}

// Frequency is a fixed aggregation bucket width, parsed from tokens like
// "15Min", "1H" or "1D".
type Frequency struct {
	Count int
	Unit  FrequencyUnit
}

func (f Frequency) String() string {
	return fmt.Sprintf("%d%s", f.Count, f.Unit.Token())
}

// ParseFrequency splits a token into a count and a unit. A missing count
// means 1, the unit is matched case insensitively.
func ParseFrequency(s string) (Frequency, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	count := 1
	if i > 0 {
		parsed := 0
		for _, c := range s[:i] {
			parsed = parsed*10 + int(c-'0')
		}
		count = parsed
	}

	if count < 1 {
		return Frequency{}, UnknownFrequencyError{Frequency: s}
	}

	var unit FrequencyUnit
	switch suffix := s[i:]; {
	case ex.AreEqual(suffix, "min") || ex.AreEqual(suffix, "minute"):
		unit = FrequencyUnitMinute
	case ex.AreEqual(suffix, "h") || ex.AreEqual(suffix, "hour"):
		unit = FrequencyUnitHour
	case ex.AreEqual(suffix, "d") || ex.AreEqual(suffix, "day"):
		unit = FrequencyUnitDay
	default:
		return Frequency{}, UnknownFrequencyError{Frequency: s}
	}

	return Frequency{Count: count, Unit: unit}, nil
}

// Floor truncates a timestamp to the start of its bucket, on the wall
// clock of the timestamp's own location.
func (f Frequency) Floor(t time.Time) time.Time {
	switch f.Unit {
	case FrequencyUnitHour:
		hour := t.Hour() - t.Hour()%f.Count
		return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
	case FrequencyUnitDay:
		if f.Count <= 1 {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		// anchor multi day buckets on the unix epoch calendar
		days := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
		days -= days % int64(f.Count)
		floored := time.Unix(days*86400, 0).UTC()
		return time.Date(floored.Year(), floored.Month(), floored.Day(), 0, 0, 0, 0, t.Location())
	default:
		minuteOfDay := t.Hour()*60 + t.Minute()
		minuteOfDay -= minuteOfDay % f.Count
		return time.Date(t.Year(), t.Month(), t.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, t.Location())
	}
}
