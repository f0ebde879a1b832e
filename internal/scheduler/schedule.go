package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/fitbot/internal/constants"
)

// Schedule is a weekly wall-clock boundary: weekday at HH:MM in Location.
type Schedule struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

var dayMap = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts English day names, their three-letter forms, or a
// number (0=Sunday, 6=Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	part := strings.TrimSpace(strings.ToLower(s))
	if wd, ok := dayMap[part]; ok {
		return wd, nil
	}
	if num, err := strconv.Atoi(part); err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseSchedule builds a Schedule from a weekday name and an HH:MM time.
func ParseSchedule(weekday, clock string, loc *time.Location) (Schedule, error) {
	d, err := ParseWeekday(weekday)
	if err != nil {
		return Schedule{}, err
	}
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(clock))
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid snapshot time %q: want HH:MM", clock)
	}
	if loc == nil {
		loc = time.Local
	}
	return Schedule{Weekday: d, Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

// NextBoundary returns the first boundary strictly after after. It is built
// from calendar fields, so DST shifts move the instant, never the wall time.
// A wall time skipped by a DST jump is normalised forward by time.Date.
func (s Schedule) NextBoundary(after time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	local := after.In(loc)
	days := (int(s.Weekday) - int(local.Weekday()) + 7) % 7
	y, m, d := local.Date()
	next := time.Date(y, m, d+days, s.Hour, s.Minute, 0, 0, loc)
	if !next.After(after) {
		next = time.Date(y, m, d+days+7, s.Hour, s.Minute, 0, 0, loc)
	}
	return next
}

func (s Schedule) String() string {
	loc := "Local"
	if s.Location != nil {
		loc = s.Location.String()
	}
	return fmt.Sprintf("%s %02d:%02d %s", s.Weekday, s.Hour, s.Minute, loc)
}
