// Package tagmap flattens a budget snapshot into the placeholder values
// consumed by the workbook template.
package tagmap

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/graest/orcamento/internal/model"
)

// ScheduleMonths is the number of month columns in the template's
// execution schedule sheet.
const ScheduleMonths = 18

// ValueKind tells how a Value is written into a cell.
type ValueKind int

const (
	Empty ValueKind = iota
	Text
	Number
)

// Value is a text, number, or empty placeholder value. An empty value
// clears the cell it replaces.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// TextValue returns a text value; the empty string is an Empty value.
func TextValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: Text, Str: s}
}

// NumberValue returns a numeric value.
func NumberValue(v float64) Value {
	return Value{Kind: Number, Num: v}
}

// IsEmpty reports whether the value clears its cell.
func (v Value) IsEmpty() bool { return v.Kind == Empty }

func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return ""
}

// Map is keyed by tag name without braces, e.g. "equip_nome_1".
type Map map[string]Value

// Keys returns the tag names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field lists, in template column order, per line item variant.
var (
	EquipmentFields = []string{"nome", "atividade", "descricao", "justificativa", "semaisum", "tipo", "qtde", "custounit"}
	PersonnelFields = []string{"nome", "salariobase", "encargos", "custohora", "totalhoras"}
	OtherFields     = []string{"descricao", "justificativa", "tipo", "qtde", "custounit"}
)

var itemPrefixes = [model.NumCategories]string{
	model.Equipment:          "equip",
	model.Labs:               "lab",
	model.DirectStaff:        "rhd",
	model.IndirectStaff:      "rhi",
	model.ThirdPartyServices: "st",
	model.Consumables:        "mc",
	model.Books:              "ol",
	model.Training:           "ot",
	model.Travel:             "ov",
	model.OtherExpenses:      "od",
}

var schedulePrefixes = [model.NumCategories]string{
	model.Equipment:          "cron_equip",
	model.Labs:               "cron_lab",
	model.DirectStaff:        "cron_rhd",
	model.IndirectStaff:      "cron_rhi",
	model.ThirdPartyServices: "cron_st",
	model.Consumables:        "cron_mc",
	model.Books:              "cron_livros",
	model.Training:           "cron_trein",
	model.Travel:             "cron_viagens",
	model.OtherExpenses:      "cron_outros",
}

// Overhead percentage tags, written as fractions (5% is 0.05).
const (
	TagISS     = "config_iss_pct"
	TagDOA     = "config_doa_pct"
	TagReserve = "config_reserva_pct"
)

// ItemPrefix is the tag prefix of a category's line items.
func ItemPrefix(c model.Category) string {
	if !c.Valid() {
		return ""
	}
	return itemPrefixes[c]
}

// SchedulePrefix is the tag prefix of a category's schedule row.
func SchedulePrefix(c model.Category) string {
	if !c.Valid() {
		return ""
	}
	return schedulePrefixes[c]
}

// Fields returns the field names used by a category's variant.
func Fields(c model.Category) []string {
	switch c.Kind() {
	case model.KindPersonnel:
		return PersonnelFields
	case model.KindOther:
		return OtherFields
	}
	return EquipmentFields
}

// ItemTag names the placeholder for field of the n-th item (1-based) of c.
func ItemTag(c model.Category, field string, n int) string {
	return fmt.Sprintf("%s_%s_%d", ItemPrefix(c), field, n)
}

// ScheduleTag names the placeholder for c in month (1-based).
func ScheduleTag(c model.Category, month int) string {
	return fmt.Sprintf("%s_%d", SchedulePrefix(c), month)
}

// Build flattens s. Every slot up to each category's capacity is present;
// slots without an item, and schedule months or categories absent from the
// ledger, map to Empty. Negative numeric inputs are written as zero.
func Build(s *model.Snapshot) Map {
	m := make(Map)

	for _, c := range model.Categories() {
		for i := 0; i < c.MaxItems(); i++ {
			n := i + 1
			switch c.Kind() {
			case model.KindPersonnel:
				items := s.PersonnelItems(c)
				if i < len(items) {
					putPersonnel(m, c, n, items[i])
				} else {
					putEmpty(m, c, n)
				}
			case model.KindOther:
				items := s.OtherItems(c)
				if i < len(items) {
					putOther(m, c, n, items[i])
				} else {
					putEmpty(m, c, n)
				}
			default:
				items := s.EquipmentItems(c)
				if i < len(items) {
					putEquipment(m, c, n, items[i])
				} else {
					putEmpty(m, c, n)
				}
			}
		}
	}

	iss, doa, res := s.Overhead.Fractions()
	m[TagISS] = NumberValue(iss)
	m[TagDOA] = NumberValue(doa)
	m[TagReserve] = NumberValue(res)

	byMonth := make(map[int]model.MonthlyAllocation, len(s.Schedule))
	for _, a := range s.Schedule {
		byMonth[a.Month] = a
	}
	for _, c := range model.Categories() {
		for month := 1; month <= ScheduleMonths; month++ {
			v := Value{}
			if a, ok := byMonth[month]; ok {
				if amount, ok := a.Amounts[c]; ok {
					v = NumberValue(model.NonNegative(amount))
				}
			}
			m[ScheduleTag(c, month)] = v
		}
	}

	return m
}

func putEmpty(m Map, c model.Category, n int) {
	for _, f := range Fields(c) {
		m[ItemTag(c, f, n)] = Value{}
	}
}

func putEquipment(m Map, c model.Category, n int, it model.EquipmentItem) {
	m[ItemTag(c, "nome", n)] = TextValue(it.Name)
	m[ItemTag(c, "atividade", n)] = TextValue(it.Activity)
	m[ItemTag(c, "descricao", n)] = TextValue(it.Description)
	m[ItemTag(c, "justificativa", n)] = TextValue(it.Justification)
	m[ItemTag(c, "semaisum", n)] = TextValue(it.MultiUnitJustification)
	m[ItemTag(c, "tipo", n)] = TextValue(it.Type)
	m[ItemTag(c, "qtde", n)] = NumberValue(model.NonNegative(it.Quantity))
	m[ItemTag(c, "custounit", n)] = NumberValue(model.NonNegative(it.UnitCost))
}

// The personnel name column holds the role, not the person.
func putPersonnel(m Map, c model.Category, n int, it model.PersonnelItem) {
	m[ItemTag(c, "nome", n)] = TextValue(it.RoleName)
	m[ItemTag(c, "salariobase", n)] = NumberValue(model.NonNegative(it.BaseSalary))
	m[ItemTag(c, "encargos", n)] = NumberValue(model.NonNegative(it.MonthlyCharges))
	m[ItemTag(c, "custohora", n)] = NumberValue(model.NonNegative(it.HourlyCost))
	m[ItemTag(c, "totalhoras", n)] = NumberValue(model.NonNegative(it.TotalProjectHours))
}

func putOther(m Map, c model.Category, n int, it model.OtherItem) {
	m[ItemTag(c, "descricao", n)] = TextValue(it.Description)
	m[ItemTag(c, "justificativa", n)] = TextValue(it.Justification)
	m[ItemTag(c, "tipo", n)] = TextValue(it.Type)
	m[ItemTag(c, "qtde", n)] = NumberValue(model.NonNegative(it.Quantity))
	m[ItemTag(c, "custounit", n)] = NumberValue(model.NonNegative(it.UnitCost))
}
