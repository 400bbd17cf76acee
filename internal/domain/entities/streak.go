package entities

import "time"

const dayLayout = "2006-01-02"

// Streak counts consecutive days with at least one study visit.
type Streak struct {
	Days      int    `json:"days"`
	LastVisit string `json:"last_visit,omitempty"` // format "YYYY-MM-DD"
}

// Touch registers a visit at now and returns the updated streak.
//  1. Same day as the last visit: unchanged.
//  2. The day after the last visit: the streak grows by one.
//  3. First visit or a gap of more than one day: the streak restarts at one.
func (s Streak) Touch(now time.Time) Streak {
	today := now.Format(dayLayout)
	if s.LastVisit == today {
		return s
	}

	last, err := time.Parse(dayLayout, s.LastVisit)
	if err == nil && last.AddDate(0, 0, 1).Format(dayLayout) == today {
		s.Days++
		s.LastVisit = today
		return s
	}

	s.Days = 1
	s.LastVisit = today
	return s
}
