package monitor

import (
	"fmt"
	"time"
)

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window is the weekday trading-hours gate. Both ends are inclusive, to the
// minute.
type Window struct {
	Start    Clock
	End      Clock
	Location *time.Location
}

func (w *Window) Open(t time.Time) bool {
	if w.Location != nil {
		t = t.In(w.Location)
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	now := Clock(t.Hour()*60 + t.Minute())
	return now >= w.Start && now <= w.End
}

func (w *Window) String() string {
	if w == nil {
		return "상시"
	}
	return fmt.Sprintf("평일 %s~%s", w.Start, w.End)
}
