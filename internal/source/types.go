package source

import "github.com/graest/orcamento/internal/model"

// Document is the on-disk JSON shape of a budget plan. Dates are ISO
// calendar dates ("2006-01-02"); full RFC 3339 timestamps are also accepted.
type Document struct {
	ID        string `json:"id,omitempty"`
	Nickname  string `json:"nickname"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Equipment          []model.EquipmentItem `json:"equipment"`
	Labs               []model.EquipmentItem `json:"labs"`
	DirectStaff        []model.PersonnelItem `json:"direct_staff"`
	IndirectStaff      []model.PersonnelItem `json:"indirect_staff"`
	ThirdPartyServices []model.EquipmentItem `json:"third_party_services"`
	Consumables        []model.EquipmentItem `json:"consumables"`
	Books              []model.OtherItem     `json:"books"`
	Training           []model.OtherItem     `json:"training"`
	Travel             []model.OtherItem     `json:"travel"`
	OtherExpenses      []model.OtherItem     `json:"other_expenses"`

	// Overhead is optional; missing percentages take the institutional defaults.
	Overhead *RawOverhead              `json:"overhead,omitempty"`
	Schedule []model.MonthlyAllocation `json:"schedule"`
}

// RawOverhead distinguishes an absent percentage from an explicit zero.
type RawOverhead struct {
	ISSPercent     *float64 `json:"iss_percent"`
	DOAPercent     *float64 `json:"doa_percent"`
	ReservePercent *float64 `json:"reserva_percent"`
}

// DiscoveredFile is a plan document found by ScanDir.
type DiscoveredFile struct {
	Path string
	Name string // file name without extension
}
