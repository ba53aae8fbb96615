package activity

import (
	"time"

	"digibank/internal/models"
)

// DayGroup is a run of consecutive items created on the same local day.
type DayGroup struct {
	// Day is local midnight of the group's calendar day.
	Day   time.Time
	Items []models.Transfer
}

// Group splits items into runs sharing a calendar day in loc, keeping the
// input order. Apply it to the filtered sequence so headers match what is
// shown. A nil loc means UTC.
func Group(items []models.Transfer, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.UTC
	}
	var groups []DayGroup
	for _, t := range items {
		y, m, d := t.CreatedAt.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Items = append(groups[n-1].Items, t)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Items: []models.Transfer{t}})
	}
	return groups
}
