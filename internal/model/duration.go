package model

import (
	"strconv"
	"time"
)

// FormatDuration renders a nanosecond value for display: sub-millisecond
// values in nanoseconds, sub-second values in milliseconds, everything else
// in seconds.
func FormatDuration(ns int64) string {
	switch {
	case ns < int64(time.Millisecond):
		return strconv.FormatInt(ns, 10) + "ns"
	case ns < int64(time.Second):
		return strconv.FormatFloat(float64(ns)/1e6, 'f', 2, 64) + "ms"
	default:
		return strconv.FormatFloat(float64(ns)/1e9, 'f', 2, 64) + "s"
	}
}
