// Package model defines the budget snapshot and its line items.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrCapacity is returned when a category would exceed its maximum item count.
	ErrCapacity = errors.New("category is full")
	// ErrKindMismatch is returned when an item variant does not fit the category.
	ErrKindMismatch = errors.New("item does not belong to category")
	// ErrItemIndex is returned for an out-of-range item position.
	ErrItemIndex = errors.New("item index out of range")
)

// Default overhead percentages.
const (
	DefaultISSPercent     = 5
	DefaultDOAPercent     = 15
	DefaultReservePercent = 5
)

// LineItem is any budget line that can report its cost.
type LineItem interface {
	Cost(durationMonths int) float64
}

// EquipmentItem is the line shape shared by equipment, labs, services and consumables.
type EquipmentItem struct {
	Name                   string  `json:"name"`
	Activity               string  `json:"activity"`
	Description            string  `json:"description"`
	Justification          string  `json:"justification"`
	MultiUnitJustification string  `json:"multi_unit_justification"`
	Type                   string  `json:"type"`
	Quantity               float64 `json:"quantity"`
	UnitCost               float64 `json:"unit_cost"`
}

// Cost is quantity times unit cost.
func (i EquipmentItem) Cost(int) float64 {
	return NonNegative(i.Quantity) * NonNegative(i.UnitCost)
}

// PersonnelItem is a staff line. Hourly cost and hours are informational.
type PersonnelItem struct {
	StaffMemberID     string  `json:"staff_member_id,omitempty"`
	PersonName        string  `json:"person_name"`
	RoleName          string  `json:"role_name"`
	BaseSalary        float64 `json:"base_salary"`
	MonthlyCharges    float64 `json:"monthly_charges"`
	HourlyCost        float64 `json:"hourly_cost"`
	TotalProjectHours float64 `json:"total_project_hours"`
}

// MonthlyCost is salary plus charges.
func (i PersonnelItem) MonthlyCost() float64 {
	return NonNegative(i.BaseSalary) + NonNegative(i.MonthlyCharges)
}

// Cost is the monthly cost over the whole project duration.
func (i PersonnelItem) Cost(durationMonths int) float64 {
	if durationMonths <= 0 {
		return 0
	}
	return i.MonthlyCost() * float64(durationMonths)
}

// ProjectHours estimates the hours a salary buys over the project at the
// given hourly cost. It is 0 when either the rate or the duration is unset.
func ProjectHours(baseSalary, hourlyCost float64, months int) float64 {
	if hourlyCost <= 0 || months <= 0 {
		return 0
	}
	return NonNegative(baseSalary) * float64(months) / hourlyCost
}

// OtherItem is the line shape of the four "other" sub-categories.
type OtherItem struct {
	Description   string  `json:"description"`
	Justification string  `json:"justification"`
	Type          string  `json:"type"`
	Quantity      float64 `json:"quantity"`
	UnitCost      float64 `json:"unit_cost"`
}

// Cost is quantity times unit cost.
func (i OtherItem) Cost(int) float64 {
	return NonNegative(i.Quantity) * NonNegative(i.UnitCost)
}

// NonNegative clamps negative and NaN values to zero.
func NonNegative(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		return 0
	}
	return v
}

// OverheadConfig holds the three overhead percentages in whole-number form.
type OverheadConfig struct {
	ISSPercent     float64 `json:"iss_percent"`
	DOAPercent     float64 `json:"doa_percent"`
	ReservePercent float64 `json:"reserva_percent"`
}

// DefaultOverhead returns the institutional default percentages.
func DefaultOverhead() OverheadConfig {
	return OverheadConfig{
		ISSPercent:     DefaultISSPercent,
		DOAPercent:     DefaultDOAPercent,
		ReservePercent: DefaultReservePercent,
	}
}

// Clamped returns the config with every percentage limited to [0,100].
func (o OverheadConfig) Clamped() OverheadConfig {
	return OverheadConfig{
		ISSPercent:     clampPercent(o.ISSPercent),
		DOAPercent:     clampPercent(o.DOAPercent),
		ReservePercent: clampPercent(o.ReservePercent),
	}
}

// Fractions returns the percentages divided by 100.
func (o OverheadConfig) Fractions() (iss, doa, reserve float64) {
	c := o.Clamped()
	return c.ISSPercent / 100, c.DOAPercent / 100, c.ReservePercent / 100
}

func clampPercent(v float64) float64 {
	v = NonNegative(v)
	if v > 100 {
		return 100
	}
	return v
}

// MonthlyAllocation holds one project month of the distribution schedule.
// A category absent from Amounts was never entered for that month.
type MonthlyAllocation struct {
	Month   int                  `json:"month"`
	Amounts map[Category]float64 `json:"amounts"`
}

// Amount returns the allocation for c, zero when absent.
func (m MonthlyAllocation) Amount(c Category) float64 {
	return m.Amounts[c]
}

// Snapshot is the complete editable budget of one plan.
type Snapshot struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Equipment          []EquipmentItem `json:"equipment"`
	Labs               []EquipmentItem `json:"labs"`
	DirectStaff        []PersonnelItem `json:"direct_staff"`
	IndirectStaff      []PersonnelItem `json:"indirect_staff"`
	ThirdPartyServices []EquipmentItem `json:"third_party_services"`
	Consumables        []EquipmentItem `json:"consumables"`
	Books              []OtherItem     `json:"books"`
	Training           []OtherItem     `json:"training"`
	Travel             []OtherItem     `json:"travel"`
	OtherExpenses      []OtherItem     `json:"other_expenses"`

	Overhead OverheadConfig      `json:"overhead"`
	Schedule []MonthlyAllocation `json:"schedule"`
}

// NewSnapshot returns an empty snapshot with default overheads.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ID:       uuid.NewString(),
		Overhead: DefaultOverhead(),
	}
}

// Duration is the project length in whole calendar months, never negative.
func (s *Snapshot) Duration() int {
	return DurationMonths(s.StartDate, s.EndDate)
}

// DurationMonths counts calendar months between two dates, ignoring the day.
func DurationMonths(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months
}

// Len returns the number of items in c.
func (s *Snapshot) Len(c Category) int {
	switch c.Kind() {
	case KindPersonnel:
		return len(*s.personnel(c))
	case KindOther:
		return len(*s.other(c))
	default:
		return len(*s.equipment(c))
	}
}

// Items returns the items of c as LineItems.
func (s *Snapshot) Items(c Category) []LineItem {
	var out []LineItem
	switch c.Kind() {
	case KindPersonnel:
		for _, it := range *s.personnel(c) {
			out = append(out, it)
		}
	case KindOther:
		for _, it := range *s.other(c) {
			out = append(out, it)
		}
	default:
		for _, it := range *s.equipment(c) {
			out = append(out, it)
		}
	}
	return out
}

// EquipmentItems returns the items of an equipment-style category.
func (s *Snapshot) EquipmentItems(c Category) []EquipmentItem {
	if c.Kind() != KindEquipment {
		return nil
	}
	return *s.equipment(c)
}

// PersonnelItems returns the items of a personnel category.
func (s *Snapshot) PersonnelItems(c Category) []PersonnelItem {
	if c.Kind() != KindPersonnel {
		return nil
	}
	return *s.personnel(c)
}

// OtherItems returns the items of an "other" sub-category.
func (s *Snapshot) OtherItems(c Category) []OtherItem {
	if c.Kind() != KindOther {
		return nil
	}
	return *s.other(c)
}

// Insert appends item to c. The snapshot is left untouched on error.
func (s *Snapshot) Insert(c Category, item LineItem) error {
	if !c.Valid() {
		return fmt.Errorf("insert: %w", ErrKindMismatch)
	}
	if s.Len(c) >= c.MaxItems() {
		return fmt.Errorf("%s holds at most %d items: %w", c.Key(), c.MaxItems(), ErrCapacity)
	}
	return s.put(c, -1, item)
}

// Replace overwrites the item at idx in c.
func (s *Snapshot) Replace(c Category, idx int, item LineItem) error {
	if idx < 0 || idx >= s.Len(c) {
		return fmt.Errorf("%s[%d]: %w", c.Key(), idx, ErrItemIndex)
	}
	return s.put(c, idx, item)
}

// Delete removes the item at idx in c.
func (s *Snapshot) Delete(c Category, idx int) error {
	if idx < 0 || idx >= s.Len(c) {
		return fmt.Errorf("%s[%d]: %w", c.Key(), idx, ErrItemIndex)
	}
	switch c.Kind() {
	case KindPersonnel:
		p := s.personnel(c)
		*p = append((*p)[:idx], (*p)[idx+1:]...)
	case KindOther:
		p := s.other(c)
		*p = append((*p)[:idx], (*p)[idx+1:]...)
	default:
		p := s.equipment(c)
		*p = append((*p)[:idx], (*p)[idx+1:]...)
	}
	return nil
}

// put stores item at idx, or appends when idx is negative.
func (s *Snapshot) put(c Category, idx int, item LineItem) error {
	switch it := item.(type) {
	case EquipmentItem:
		if c.Kind() != KindEquipment {
			return fmt.Errorf("%s item in %s: %w", KindEquipment, c.Key(), ErrKindMismatch)
		}
		p := s.equipment(c)
		if idx < 0 {
			*p = append(*p, it)
		} else {
			(*p)[idx] = it
		}
	case PersonnelItem:
		if c.Kind() != KindPersonnel {
			return fmt.Errorf("%s item in %s: %w", KindPersonnel, c.Key(), ErrKindMismatch)
		}
		p := s.personnel(c)
		if idx < 0 {
			*p = append(*p, it)
		} else {
			(*p)[idx] = it
		}
	case OtherItem:
		if c.Kind() != KindOther {
			return fmt.Errorf("%s item in %s: %w", KindOther, c.Key(), ErrKindMismatch)
		}
		p := s.other(c)
		if idx < 0 {
			*p = append(*p, it)
		} else {
			(*p)[idx] = it
		}
	default:
		return fmt.Errorf("%T in %s: %w", item, c.Key(), ErrKindMismatch)
	}
	return nil
}

// Validate rejects categories holding more items than the template allows.
func (s *Snapshot) Validate() error {
	for _, c := range Categories() {
		if n := s.Len(c); n > c.MaxItems() {
			return fmt.Errorf("%s has %d items, max %d: %w", c.Key(), n, c.MaxItems(), ErrCapacity)
		}
	}
	return nil
}

func (s *Snapshot) equipment(c Category) *[]EquipmentItem {
	switch c {
	case Labs:
		return &s.Labs
	case ThirdPartyServices:
		return &s.ThirdPartyServices
	case Consumables:
		return &s.Consumables
	default:
		return &s.Equipment
	}
}

func (s *Snapshot) personnel(c Category) *[]PersonnelItem {
	if c == IndirectStaff {
		return &s.IndirectStaff
	}
	return &s.DirectStaff
}

func (s *Snapshot) other(c Category) *[]OtherItem {
	switch c {
	case Training:
		return &s.Training
	case Travel:
		return &s.Travel
	case OtherExpenses:
		return &s.OtherExpenses
	default:
		return &s.Books
	}
}
