package journal

import (
	"sort"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// DefaultRetestState is recorded when a retest notes change carries no state.
const DefaultRetestState = models.RetestNotFixed

// History is the per-field history derived from a journal replay.
type History struct {
	Notes       []models.CheckResultNotesHistory
	RetestNotes []models.CheckResultRetestNotesHistory
	Skipped     []Skipped
}

// Skipped records an event the replay could not use.
type Skipped struct {
	EventID  int64
	ObjectID int64
	Reason   string
}

// SortEvents orders events by created then id, the replay order.
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Created.Equal(events[j].Created) {
			return events[i].ID < events[j].ID
		}
		return events[i].Created.Before(events[j].Created)
	})
}

// Replay derives notes and retest notes history rows from CheckResult update
// events. Timestamps and authors are copied from the events.
func Replay(events []models.Event) History {
	ordered := append([]models.Event(nil), events...)
	SortEvents(ordered)

	history := History{}
	for _, event := range ordered {
		if event.ContentType != models.ContentCheckResult || event.Type != models.EventModelUpdate {
			continue
		}
		payload, err := Parse(event.Value)
		if err != nil {
			history.Skipped = append(history.Skipped, Skipped{EventID: event.ID, ObjectID: event.ObjectID, Reason: err.Error()})
			continue
		}
		if notes, ok := Field(payload, "notes"); ok {
			history.Notes = append(history.Notes, models.CheckResultNotesHistory{
				CheckResultID: event.ObjectID,
				Notes:         notes,
				CreatedBy:     event.CreatedBy,
				Created:       event.Created,
			})
		}
		if retestNotes, ok := Field(payload, "retest_notes"); ok {
			state := DefaultRetestState
			if value, found := Field(payload, "retest_state"); found && value != "" {
				state = models.RetestState(value)
			}
			history.RetestNotes = append(history.RetestNotes, models.CheckResultRetestNotesHistory{
				CheckResultID: event.ObjectID,
				RetestState:   state,
				RetestNotes:   retestNotes,
				CreatedBy:     event.CreatedBy,
				Created:       event.Created,
			})
		}
	}
	return history
}

// CheckResultIDs lists the distinct check results a history references.
func (h History) CheckResultIDs() []int64 {
	seen := map[int64]struct{}{}
	ids := make([]int64, 0)
	add := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, row := range h.Notes {
		add(row.CheckResultID)
	}
	for _, row := range h.RetestNotes {
		add(row.CheckResultID)
	}
	return ids
}

// Without drops the rows of check results that no longer exist and records
// them as skipped.
func (h History) Without(missing map[int64]struct{}) History {
	if len(missing) == 0 {
		return h
	}
	out := History{Skipped: append([]Skipped(nil), h.Skipped...)}
	for _, row := range h.Notes {
		if _, gone := missing[row.CheckResultID]; gone {
			out.Skipped = append(out.Skipped, Skipped{ObjectID: row.CheckResultID, Reason: "check result not found"})
			continue
		}
		out.Notes = append(out.Notes, row)
	}
	for _, row := range h.RetestNotes {
		if _, gone := missing[row.CheckResultID]; gone {
			out.Skipped = append(out.Skipped, Skipped{ObjectID: row.CheckResultID, Reason: "check result not found"})
			continue
		}
		out.RetestNotes = append(out.RetestNotes, row)
	}
	return out
}
