// Package source reads budget plan documents from JSON files.
package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/graest/orcamento/internal/model"
)

// ParseResult holds the output of parsing a single plan document.
type ParseResult struct {
	File     DiscoveredFile
	Snapshot *model.Snapshot
	Err      error
}

// ParseFile reads one plan document. A document without a nickname takes
// the file name.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f)
	if err != nil {
		return ParseResult{File: df, Err: fmt.Errorf("%s: %w", df.Path, err)}
	}
	if s.Nickname == "" {
		s.Nickname = df.Name
	}
	return ParseResult{File: df, Snapshot: s}
}

// Parse decodes a plan document into a snapshot. Categories over capacity
// are rejected rather than truncated.
func Parse(r io.Reader) (*model.Snapshot, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return doc.Snapshot()
}

// Snapshot converts the document into a fresh snapshot.
func (d *Document) Snapshot() (*model.Snapshot, error) {
	s := model.NewSnapshot()
	if d.ID != "" {
		s.ID = d.ID
	}
	s.Nickname = strings.TrimSpace(d.Nickname)
	s.Title = strings.TrimSpace(d.Title)

	var err error
	if s.StartDate, err = parseDate(d.StartDate); err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	if s.EndDate, err = parseDate(d.EndDate); err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}

	s.Equipment = d.Equipment
	s.Labs = d.Labs
	s.DirectStaff = d.DirectStaff
	s.IndirectStaff = d.IndirectStaff
	s.ThirdPartyServices = d.ThirdPartyServices
	s.Consumables = d.Consumables
	s.Books = d.Books
	s.Training = d.Training
	s.Travel = d.Travel
	s.OtherExpenses = d.OtherExpenses

	if o := d.Overhead; o != nil {
		if o.ISSPercent != nil {
			s.Overhead.ISSPercent = *o.ISSPercent
		}
		if o.DOAPercent != nil {
			s.Overhead.DOAPercent = *o.DOAPercent
		}
		if o.ReservePercent != nil {
			s.Overhead.ReservePercent = *o.ReservePercent
		}
	}
	s.Overhead = s.Overhead.Clamped()

	for _, m := range d.Schedule {
		if m.Month < 1 {
			return nil, fmt.Errorf("schedule: invalid month %d", m.Month)
		}
		if m.Amounts == nil {
			m.Amounts = make(map[model.Category]float64)
		}
		s.Schedule = append(s.Schedule, m)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDate accepts an ISO calendar date or an RFC 3339 timestamp.
// An empty string is a missing date.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t, nil
}
