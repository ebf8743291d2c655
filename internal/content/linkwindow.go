package content

import "time"

// ActiveLinks filters a multi-destination page's links down to the
// entries visible at now, preserving order. Each entry is judged
// independently: the active flag must not be false, and now must fall
// inside the optional scheduling window. Visibility is recomputed on
// every read and never stored.
func ActiveLinks(links []LinkEntry, now time.Time) []LinkEntry {
	active := make([]LinkEntry, 0, len(links))
	for _, l := range links {
		if l.VisibleAt(now) {
			active = append(active, l)
		}
	}
	return active
}

// VisibleAt reports whether the entry is active at the given instant.
func (l LinkEntry) VisibleAt(now time.Time) bool {
	if l.IsActive != nil && !*l.IsActive {
		return false
	}
	if l.ScheduledStart != nil && now.Before(*l.ScheduledStart) {
		return false
	}
	if l.ScheduledEnd != nil && now.After(*l.ScheduledEnd) {
		return false
	}
	return true
}
