package common

import (
	"fmt"
	"math"
	"time"
)

// Date layouts used by the broker. Order reports take ISO dates while the
// FATCA and AOF reports take day first dates.
const (
	ISODateLayout      = "2006-01-02"
	DayFirstDateLayout = "02-01-2006"
	CompactDateLayout  = "02012006"
	hoursInDay         = 24
)

// UnixMillis converts a time to Unix milliseconds
func UnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// ParseDate parses value using layout and names the field in any error
func ParseDate(layout, field, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not in %s format", field, value, layout)
	}
	return t, nil
}

// DaysBetween returns the absolute whole day span between two dates rounded
// up to the next day
func DaysBetween(a, b time.Time) int {
	return int(math.Ceil(math.Abs(b.Sub(a).Hours()) / hoursInDay))
}
