package pipeline

import (
	"fmt"
	"time"

	"github.com/graest/orcamento/internal/model"
)

// The functions below are the only mutation entry points for a snapshot.
// Each one reapplies the schedule clamping, since any change to items,
// dates or percentages can shrink the headroom of already-entered months.

// AddItem appends item to c. Capacity and variant errors leave s unchanged.
func AddItem(s *model.Snapshot, c model.Category, item model.LineItem) error {
	if err := s.Insert(c, item); err != nil {
		return err
	}
	Reclamp(s)
	return nil
}

// UpdateItem replaces the item at idx in c.
func UpdateItem(s *model.Snapshot, c model.Category, idx int, item model.LineItem) error {
	if err := s.Replace(c, idx, item); err != nil {
		return err
	}
	Reclamp(s)
	return nil
}

// RemoveItem deletes the item at idx in c.
func RemoveItem(s *model.Snapshot, c model.Category, idx int) error {
	if err := s.Delete(c, idx); err != nil {
		return err
	}
	Reclamp(s)
	return nil
}

// SetOverhead stores the percentages, each clamped to [0,100]. A combined
// value of 100% or more is accepted; the solver then treats overheads as zero.
func SetOverhead(s *model.Snapshot, o model.OverheadConfig) {
	s.Overhead = o.Clamped()
	Reclamp(s)
}

// SetDates changes the execution period and resizes the schedule to match.
func SetDates(s *model.Snapshot, start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	s.StartDate, s.EndDate = start, end
	normalizeSchedule(s, s.Duration())
	Reclamp(s)
	return nil
}
