// Package availability tracks busy date ranges per user and answers
// free-date queries against them.
package availability

import (
	"sort"
	"sync"

	"github.com/shiva/tripplanner/internal/model"
)

// Calendar keeps busy ranges per user. Writes happen at startup or during
// calendar-feed ingestion; planning requests only read.
type Calendar struct {
	mu   sync.RWMutex
	busy map[string][]model.DateRange
}

// NewCalendar creates an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{busy: make(map[string][]model.DateRange)}
}

// Seed replaces the busy ranges for a user.
func (c *Calendar) Seed(userID string, ranges []model.DateRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy[userID] = append([]model.DateRange(nil), ranges...)
}

// AddBusyRanges appends busy ranges for a user, keeping what is already there.
func (c *Calendar) AddBusyRanges(userID string, ranges []model.DateRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy[userID] = append(c.busy[userID], ranges...)
}

// BusyRanges returns a copy of the user's busy ranges in insertion order.
func (c *Calendar) BusyRanges(userID string) []model.DateRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.DateRange(nil), c.busy[userID]...)
}

// IsRangeAvailable reports whether no busy range of the user overlaps [start, end].
func (c *Calendar) IsRangeAvailable(userID string, start, end model.Date) bool {
	want := model.DateRange{Start: start, End: end}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.busy[userID] {
		if want.Overlaps(b) {
			return false
		}
	}
	return true
}

// FreeRanges returns the free sub-ranges of [start, end] for the user, in
// ascending order. Busy ranges may overlap or arrive unsorted.
func (c *Calendar) FreeRanges(userID string, start, end model.Date) []model.DateRange {
	busy := c.BusyRanges(userID)
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	var free []model.DateRange
	cursor := start
	for _, b := range busy {
		if cursor.After(end) {
			break
		}
		if cursor.Before(b.Start) {
			// Clip to the window so ranges never spill past end.
			gapEnd := b.Start.AddDays(-1)
			if gapEnd.After(end) {
				gapEnd = end
			}
			free = append(free, model.DateRange{Start: cursor, End: gapEnd})
		}
		cursor = model.MaxDate(cursor, b.End.AddDays(1))
	}

	if !cursor.After(end) {
		free = append(free, model.DateRange{Start: cursor, End: end})
	}
	return free
}
