package utils

import "time"

const newYorkZone = "America/New_York"

// MarketHours describes a daily regular trading session in a given location.
type MarketHours struct {
	Location  *time.Location
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
}

// USMarketHours returns the NYSE/NASDAQ regular session, 09:30 to 16:00 New York time.
func USMarketHours() (MarketHours, error) {
	loc, err := time.LoadLocation(newYorkZone)
	if err != nil {
		return MarketHours{}, err
	}
	return MarketHours{Location: loc, OpenHour: 9, OpenMin: 30, CloseHour: 16, CloseMin: 0}, nil
}

// IsOpen reports whether t falls on a weekday inside the session. Holidays are not modelled.
func (m MarketHours) IsOpen(t time.Time) bool {
	local := t.In(m.Location)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), m.OpenHour, m.OpenMin, 0, 0, m.Location)
	closing := time.Date(local.Year(), local.Month(), local.Day(), m.CloseHour, m.CloseMin, 0, 0, m.Location)
	return !local.Before(open) && !local.After(closing)
}

// PrettyDate renders t in New York time for human-facing messages.
func PrettyDate(t time.Time) string {
	loc, err := time.LoadLocation(newYorkZone)
	if err != nil {
		return t.Format("02 Jan 2006 15:04 MST")
	}
	return t.In(loc).Format("Mon, 02 Jan 2006 15:04 MST")
}
