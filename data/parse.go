package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// unix timestamps above this are treated as milliseconds
const millisecondThreshold = 100000000000

// ParseTime converts a loader supplied timestamp into UTC. Integers are unix
// seconds or milliseconds, anything else is parsed as a date string
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", errZeroTime)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return UnixToTime(v), nil
	}
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// UnixToTime converts unix seconds or milliseconds into UTC
func UnixToTime(v int64) time.Time {
	if v > millisecondThreshold || v < -millisecondThreshold {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
