package model

import (
	"fmt"
	"strings"
)

// Category is one of the ten fixed budget groupings, in template order.
type Category int

const (
	Equipment Category = iota
	Labs
	DirectStaff
	IndirectStaff
	ThirdPartyServices
	Consumables
	Books
	Training
	Travel
	OtherExpenses
)

// NumCategories is the number of budget categories.
const NumCategories = 10

// Kind identifies which line item variant a category holds.
type Kind int

const (
	KindEquipment Kind = iota
	KindPersonnel
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindEquipment:
		return "equipment"
	case KindPersonnel:
		return "personnel"
	case KindOther:
		return "other"
	}
	return "unknown"
}

type categoryInfo struct {
	key      string
	label    string
	kind     Kind
	maxItems int
}

var categoryTable = [NumCategories]categoryInfo{
	Equipment:          {"equipment", "I - Equipamentos", KindEquipment, 14},
	Labs:               {"labs", "II - Laboratórios", KindEquipment, 3},
	DirectStaff:        {"direct-staff", "III - RH Direto", KindPersonnel, 22},
	IndirectStaff:      {"indirect-staff", "III - RH Indireto", KindPersonnel, 6},
	ThirdPartyServices: {"services", "IV - Serviços de Terceiros", KindEquipment, 3},
	Consumables:        {"consumables", "V - Material de Consumo", KindEquipment, 5},
	Books:              {"books", "VI - Livros e Periódicos", KindOther, 6},
	Training:           {"training", "VI - Treinamentos", KindOther, 6},
	Travel:             {"travel", "VI - Viagens", KindOther, 6},
	OtherExpenses:      {"other", "VI - Outros Dispêndios", KindOther, 5},
}

// Categories returns all categories in template order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is one of the ten known categories.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < NumCategories
}

// Key is the stable machine name used in documents and on the command line.
func (c Category) Key() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryTable[c].key
}

func (c Category) String() string { return c.Key() }

// Label is the institutional display name.
func (c Category) Label() string {
	if !c.Valid() {
		return c.Key()
	}
	return categoryTable[c].label
}

// Kind returns the line item variant held by the category.
func (c Category) Kind() Kind {
	if !c.Valid() {
		return KindEquipment
	}
	return categoryTable[c].kind
}

// MaxItems is the fixed capacity of the category.
func (c Category) MaxItems() int {
	if !c.Valid() {
		return 0
	}
	return categoryTable[c].maxItems
}

// Direct reports whether c is one of the six direct-cost categories (I to V).
func (c Category) Direct() bool {
	return c.Valid() && c <= Consumables
}

// ParseCategory resolves a category from its key (case-insensitive).
func ParseCategory(key string) (Category, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, info := range categoryTable {
		if info.key == key {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", key)
}

// MarshalText lets categories key JSON objects.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.Key()), nil
}

// UnmarshalText parses a category key.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
