package models

import (
	"fmt"
	"time"
)

type Timeframe string

const (
	TimeframeHour  Timeframe = "1h"
	TimeframeDay   Timeframe = "24h"
	TimeframeWeek  Timeframe = "7d"
	TimeframeMonth Timeframe = "30d"

	DefaultTimeframe = TimeframeWeek
)

var timeframeDurations = map[Timeframe]time.Duration{
	TimeframeHour:  time.Hour,
	TimeframeDay:   24 * time.Hour,
	TimeframeWeek:  7 * 24 * time.Hour,
	TimeframeMonth: 30 * 24 * time.Hour,
}

// ParseTimeframe validates a timeframe string. An empty value selects DefaultTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return DefaultTimeframe, nil
	}
	tf := Timeframe(s)
	if _, ok := timeframeDurations[tf]; !ok {
		return "", fmt.Errorf("%w: unknown timeframe %q", ErrInvalidArgument, s)
	}
	return tf, nil
}

// Duration returns the length of the window, or zero for an unknown timeframe.
func (t Timeframe) Duration() time.Duration {
	return timeframeDurations[t]
}

func (t Timeframe) Valid() bool {
	_, ok := timeframeDurations[t]
	return ok
}

// WindowStart returns the inclusive lower bound of a window of length d ending at now.
func WindowStart(now time.Time, d time.Duration) time.Time {
	return now.Add(-d)
}
