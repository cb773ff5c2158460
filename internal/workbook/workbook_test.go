package workbook

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/tagmap"
	"github.com/graest/orcamento/internal/workbook/workbooktest"
)

func authorFunc(f *excelize.File) error {
	_, err := Author(f)
	return err
}

func buildTemplate(t *testing.T, opts workbooktest.Options) []byte {
	t.Helper()
	tpl, err := workbooktest.Template(authorFunc, opts)
	if err != nil {
		t.Fatalf("building template: %v", err)
	}
	return tpl
}

func materialize(t *testing.T, tpl []byte, s *model.Snapshot) (*excelize.File, []byte) {
	t.Helper()
	var m Materializer
	out, err := m.Materialize(context.Background(), bytes.NewReader(tpl), tagmap.Build(s), s.Duration())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f, out
}

func rawValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, cell, err)
	}
	return v
}

func formula(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		t.Fatalf("GetCellFormula(%s!%s): %v", sheet, cell, err)
	}
	return v
}

func samplePlan() *model.Snapshot {
	s := model.NewSnapshot()
	s.Nickname = "Sensores IoT"
	s.StartDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.EndDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Insert(model.Equipment, model.EquipmentItem{
		Name: "Osciloscópio", Activity: "Medições", Quantity: 2, UnitCost: 4500,
	})
	_ = s.Insert(model.DirectStaff, model.PersonnelItem{
		RoleName: "Pesquisador", BaseSalary: 3000, MonthlyCharges: 600,
	})
	_ = s.Insert(model.DirectStaff, model.PersonnelItem{
		RoleName: "Bolsista", HourlyCost: 25, TotalProjectHours: 960,
	})
	_ = s.Insert(model.Books, model.OtherItem{Description: "Assinatura IEEE", Quantity: 1, UnitCost: 1200})
	s.Schedule = []model.MonthlyAllocation{
		{Month: 1, Amounts: map[model.Category]float64{model.Equipment: 9000}},
	}
	return s
}

func TestAuthor_PlaceholdersMatchTagMap(t *testing.T) {
	f, err := workbooktest.SourceWorkbook(workbooktest.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	report, err := Author(f)
	if err != nil {
		t.Fatalf("Author: %v", err)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", report.Skipped)
	}

	got, err := Placeholders(f)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := tagmap.Build(model.NewSnapshot()).Keys()

	if len(got) != len(want) {
		t.Fatalf("template has %d placeholders, tag map has %d keys", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placeholder %d = %q, tag map key %q", i, got[i], want[i])
		}
	}
	if report.Inserted != len(want) || report.Placeholders != len(want) {
		t.Errorf("report = %+v, want %d inserted and present", report, len(want))
	}
}

func TestAuthor_ExpandsLabs(t *testing.T) {
	f, err := workbooktest.SourceWorkbook(workbooktest.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := Author(f); err != nil {
		t.Fatal(err)
	}

	if got := formula(t, f, SheetLabs, "I7"); got != "SUM(I4:I6)" {
		t.Errorf("labs total = %q, want SUM(I4:I6)", got)
	}
	for _, row := range []int{4, 5, 6} {
		want := "G" + strconv.Itoa(row) + "*H" + strconv.Itoa(row)
		if got := formula(t, f, SheetLabs, cellRef("I", row)); got != want {
			t.Errorf("labs I%d = %q, want %q", row, got, want)
		}
	}
	if got := rawValue(t, f, SheetLabs, "A7"); got != "TOTAL" {
		t.Errorf("labs A7 = %q, want TOTAL", got)
	}
	if got := rawValue(t, f, SheetLabs, "A4"); got != "{lab_nome_1}" {
		t.Errorf("labs A4 = %q", got)
	}
	if got := formula(t, f, SheetSummary, "C6"); got != "'II - Laboratórios'!$I$7" {
		t.Errorf("summary C6 = %q", got)
	}
}

func TestAuthor_SkipsMissingSheets(t *testing.T) {
	f, err := workbooktest.SourceWorkbook(workbooktest.Options{Omit: []string{SheetTravel, SheetSchedule}})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	report, err := Author(f)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{SheetTravel: true, SheetSchedule: true}
	if len(report.Skipped) != 2 || !want[report.Skipped[0]] || !want[report.Skipped[1]] {
		t.Fatalf("Skipped = %v", report.Skipped)
	}
	if !strings.Contains(report.String(), "missing sheets") {
		t.Errorf("String() = %q", report.String())
	}
}

func TestMaterialize_ReplacesEveryPlaceholder(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	f, _ := materialize(t, tpl, samplePlan())

	left, err := Placeholders(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("%d placeholders left, first %q", len(left), left[0])
	}

	checks := []struct{ sheet, cell, want string }{
		{SheetEquipment, "A4", "Osciloscópio"},
		{SheetEquipment, "B4", "Medições"},
		{SheetEquipment, "C4", ""},
		{SheetEquipment, "G4", "2"},
		{SheetEquipment, "H4", "4500"},
		{SheetEquipment, "A5", ""},
		{SheetDirectStaff, "B4", "Pesquisador"},
		{SheetDirectStaff, "C4", "3000"},
		{SheetBooks, "A4", "Assinatura IEEE"},
		{SheetSummary, "D16", "0.05"},
		{SheetSummary, "D19", "0.15"},
		{SheetSchedule, "E10", "9000"},
		{SheetSchedule, "F10", ""},
		{SheetSchedule, "E11", ""},
	}
	for _, c := range checks {
		if got := rawValue(t, f, c.sheet, c.cell); got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestMaterialize_PersonnelTotals(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	f, _ := materialize(t, tpl, samplePlan())

	if got := formula(t, f, SheetDirectStaff, "H4"); got != "" {
		t.Errorf("H4 formula = %q, want a plain number", got)
	}
	if got := rawValue(t, f, SheetDirectStaff, "H4"); got != "43200" {
		t.Errorf("H4 = %q, want 43200", got)
	}
	// Hourly-only staff keep the hours formula.
	if got := formula(t, f, SheetDirectStaff, "H5"); got != "F5*G5" {
		t.Errorf("H5 formula = %q, want F5*G5", got)
	}
	if got := formula(t, f, SheetDirectStaff, "E4"); got != "C4+D4" {
		t.Errorf("E4 formula = %q, want C4+D4", got)
	}
	if got := formula(t, f, SheetIndirectStaff, "G9"); got != "E9*F9" {
		t.Errorf("indirect G9 formula = %q, want E9*F9", got)
	}
	if got := formula(t, f, SheetConsumables, "I8"); got != "G8*H8" {
		t.Errorf("consumables I8 formula = %q, want G8*H8", got)
	}
}

func TestMaterialize_FlattensSharedFormulas(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	f, out := materialize(t, tpl, samplePlan())

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatal(err)
	}
	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, "xl/worksheets/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Contains(data, []byte(`t="shared"`)) {
			t.Errorf("%s still holds a shared formula", zf.Name)
		}
	}

	row := strconv.Itoa(workbooktest.ScheduleTotalRow)
	if got := formula(t, f, SheetSchedule, "E"+row); got != "SUM(E10:E15)" {
		t.Errorf("schedule E%s = %q", row, got)
	}
	if got := formula(t, f, SheetSchedule, "V"+row); got != "SUM(V10:V15)" {
		t.Errorf("schedule V%s = %q", row, got)
	}
	if got := formula(t, f, SheetBooks, "F9"); got != "D9*E9" {
		t.Errorf("books F9 = %q", got)
	}
}

func TestMaterialize_KeepsOtherFormulas(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	f, _ := materialize(t, tpl, samplePlan())

	checks := []struct{ sheet, cell, want string }{
		{SheetEquipment, workbooktest.EquipmentTotalCell, workbooktest.EquipmentTotalFormula},
		{SheetSummary, workbooktest.SummaryTotalCell, workbooktest.SummaryTotalFormula},
		{SheetSummary, "C5", "'I - Equipamentos'!$I$18"},
		{SheetSummary, "C6", "'II - Laboratórios'!$I$7"},
		{SheetLabs, "I7", "SUM(I4:I6)"},
	}
	for _, c := range checks {
		if got := formula(t, f, c.sheet, c.cell); got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestMaterialize_ClearsUnknownPlaceholders(t *testing.T) {
	src, err := excelize.OpenReader(bytes.NewReader(buildTemplate(t, workbooktest.Options{})))
	if err != nil {
		t.Fatal(err)
	}
	_ = src.SetCellStr(SheetSummary, "F30", "{nao_existe}")
	_ = src.SetCellStr(SheetSummary, "F31", "Total {equip_nome_1}")
	buf, err := src.WriteToBuffer()
	_ = src.Close()
	if err != nil {
		t.Fatal(err)
	}

	f, _ := materialize(t, buf.Bytes(), samplePlan())
	if got := rawValue(t, f, SheetSummary, "F30"); got != "" {
		t.Errorf("unknown placeholder = %q, want cleared", got)
	}
	if got := rawValue(t, f, SheetSummary, "F31"); got != "Total {equip_nome_1}" {
		t.Errorf("embedded placeholder = %q, want untouched", got)
	}
}

func TestMaterialize_MissingSheets(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{Omit: []string{SheetDirectStaff, SheetSchedule}})
	f, _ := materialize(t, tpl, samplePlan())
	if idx, _ := f.GetSheetIndex(SheetDirectStaff); idx != -1 {
		t.Errorf("sheet %q appeared in output", SheetDirectStaff)
	}
	if got := rawValue(t, f, SheetEquipment, "A4"); got != "Osciloscópio" {
		t.Errorf("A4 = %q", got)
	}
}

func TestMaterialize_AutoFit(t *testing.T) {
	s := samplePlan()
	s.Equipment[0].Justification = strings.Repeat("justificativa ", 15) // 210 characters
	tpl := buildTemplate(t, workbooktest.Options{})
	f, _ := materialize(t, tpl, s)

	// Column D is 30 wide: 30 characters per line, 7 lines, 15pt each.
	h, err := f.GetRowHeight(SheetEquipment, 4)
	if err != nil {
		t.Fatal(err)
	}
	if h != 105 {
		t.Errorf("row 4 height = %v, want 105", h)
	}
	if h, _ := f.GetRowHeight(SheetEquipment, 5); h != 15 {
		t.Errorf("row 5 height = %v, want default 15", h)
	}

	id, err := f.GetCellStyle(SheetEquipment, "D4")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(id)
	if err != nil {
		t.Fatal(err)
	}
	if style.Alignment == nil || !style.Alignment.WrapText || style.Alignment.Vertical != "top" {
		t.Errorf("D4 alignment = %+v, want wrapped and top-aligned", style.Alignment)
	}
}

func TestMaterialize_ContextCanceled(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var m Materializer
	_, err := m.Materialize(ctx, bytes.NewReader(tpl), tagmap.Build(samplePlan()), 12)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMaterialize_TemplateUntouched(t *testing.T) {
	tpl := buildTemplate(t, workbooktest.Options{})
	orig := append([]byte(nil), tpl...)
	materialize(t, tpl, samplePlan())
	if !bytes.Equal(tpl, orig) {
		t.Fatal("template bytes changed")
	}
}

func TestLinesFor(t *testing.T) {
	cases := []struct {
		text  string
		width float64
		want  int
	}{
		{"curto", 15, 1},
		{strings.Repeat("x", 16), 15, 2},
		{strings.Repeat("x", 25), 3, 3}, // narrow columns still fit 10 characters
		{strings.Repeat("ç", 30), 30, 1},
	}
	for _, c := range cases {
		if got := linesFor(c.text, c.width); got != c.want {
			t.Errorf("linesFor(%d chars, %v) = %d, want %d", len(c.text), c.width, got, c.want)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	cases := []struct {
		nickname, title, want string
	}{
		{"Sensores IoT", "ignored", "financeiro-sensores-iot.xlsx"},
		{"", "Rede de Irrigação!", "financeiro-rede-de-irrigação.xlsx"},
		{"", "", "financeiro-plano.xlsx"},
		{"   ", "Título", "financeiro-título.xlsx"},
		{"Projeto  Alfa / Fase 2", "", "financeiro-projeto-alfa-fase-2.xlsx"},
		{"???", "", "financeiro-plano.xlsx"},
		{strings.Repeat("a", 100), "", "financeiro-" + strings.Repeat("a", 60) + ".xlsx"},
	}
	for _, c := range cases {
		if got := OutputFilename(c.nickname, c.title); got != c.want {
			t.Errorf("OutputFilename(%q, %q) = %q, want %q", c.nickname, c.title, got, c.want)
		}
	}
}
