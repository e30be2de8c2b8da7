package client

import (
	"context"
	"sort"
)

// Availability reads slot data. Every call re-fetches: there is no cache
// and no coherence guarantee across calls; callers refresh after each
// mutation instead.
type Availability struct {
	api *api
}

// ListForSpecialist returns every slot owned by the calling specialist,
// available or taken. Returns an empty (non-nil) slice alongside the error
// on failure so callers can render an empty state directly.
func (a *Availability) ListForSpecialist(ctx context.Context) ([]Slot, error) {
	slots, err := a.api.listSlots(ctx, nil)
	if err != nil {
		return []Slot{}, err
	}
	return slots, nil
}

// ListAvailable returns the slots open for booking across all
// specialists. Same empty-slice-on-error convention as ListForSpecialist.
func (a *Availability) ListAvailable(ctx context.Context) ([]Slot, error) {
	available := true
	slots, err := a.api.listSlots(ctx, &available)
	if err != nil {
		return []Slot{}, err
	}
	return slots, nil
}

// Agenda is the calendar-oriented view of a slot list: the distinct dates
// present (sorted ascending, for day highlighting) and the slots of each
// date ordered by start time.
type Agenda struct {
	Dates  []string
	ByDate map[string][]Slot
}

// GroupByDate derives an Agenda from a slot list. The derivation is pure
// and deterministic regardless of input order: dates sort ascending,
// slots within a date sort by start time with ties broken by id
// ascending.
func GroupByDate(slots []Slot) Agenda {
	byDate := make(map[string][]Slot)
	for _, s := range slots {
		byDate[s.Date] = append(byDate[s.Date], s)
	}

	dates := make([]string, 0, len(byDate))
	for date, daySlots := range byDate {
		dates = append(dates, date)
		sort.Slice(daySlots, func(i, j int) bool {
			if daySlots[i].StartTime != daySlots[j].StartTime {
				return daySlots[i].StartTime < daySlots[j].StartTime
			}
			return daySlots[i].ID < daySlots[j].ID
		})
	}
	sort.Strings(dates)

	return Agenda{Dates: dates, ByDate: byDate}
}
