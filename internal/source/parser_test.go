package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graest/orcamento/internal/model"
)

// writePlan creates a temp plan document and returns a DiscoveredFile for it.
func writePlan(t *testing.T, name, body string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: name}
}

func TestParseFile_FullDocument(t *testing.T) {
	df := writePlan(t, "plano", `{
		"id": "7d1c1b4e-0000-4000-8000-000000000001",
		"nickname": "Sensores IoT",
		"title": "Rede de sensores para irrigação",
		"start_date": "2025-03-01",
		"end_date": "2026-03-01",
		"equipment": [{"name": "Notebook", "quantity": 2, "unit_cost": 7500}],
		"direct_staff": [{"role_name": "Pesquisador", "base_salary": 3000, "monthly_charges": 600}],
		"books": [{"description": "Periódicos", "quantity": 1, "unit_cost": 400}],
		"overhead": {"iss_percent": 2},
		"schedule": [{"month": 1, "amounts": {"equipment": 15000}}]
	}`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	s := result.Snapshot

	if s.ID != "7d1c1b4e-0000-4000-8000-000000000001" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Duration() != 12 {
		t.Errorf("Duration = %d, want 12", s.Duration())
	}
	if len(s.Equipment) != 1 || s.Equipment[0].UnitCost != 7500 {
		t.Errorf("Equipment = %+v", s.Equipment)
	}
	if len(s.DirectStaff) != 1 || s.DirectStaff[0].MonthlyCost() != 3600 {
		t.Errorf("DirectStaff = %+v", s.DirectStaff)
	}
	want := model.OverheadConfig{ISSPercent: 2, DOAPercent: 15, ReservePercent: 5}
	if s.Overhead != want {
		t.Errorf("Overhead = %+v, want %+v", s.Overhead, want)
	}
	if len(s.Schedule) != 1 || s.Schedule[0].Amount(model.Equipment) != 15000 {
		t.Errorf("Schedule = %+v", s.Schedule)
	}
}

func TestParseFile_NicknameFallsBackToFileName(t *testing.T) {
	df := writePlan(t, "projeto-x", `{"title": "Projeto X"}`)
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if result.Snapshot.Nickname != "projeto-x" {
		t.Errorf("Nickname = %q, want projeto-x", result.Snapshot.Nickname)
	}
	if result.Snapshot.ID == "" {
		t.Error("ID not generated")
	}
	if result.Snapshot.Duration() != 0 {
		t.Errorf("Duration = %d, want 0 without dates", result.Snapshot.Duration())
	}
}

func TestParse_RejectsOverCapacity(t *testing.T) {
	labs := strings.Repeat(`{"name":"bancada"},`, 4)
	doc := `{"labs": [` + strings.TrimSuffix(labs, ",") + `]}`
	_, err := Parse(strings.NewReader(doc))
	if !errors.Is(err, model.ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{"title":`,
		"bad date":     `{"start_date": "01/03/2025"}`,
		"bad month":    `{"schedule": [{"month": 0, "amounts": {}}]}`,
		"bad category": `{"schedule": [{"month": 1, "amounts": {"furniture": 10}}]}`,
	}
	for name, doc := range cases {
		if _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParse_RFC3339Dates(t *testing.T) {
	s, err := Parse(strings.NewReader(`{"start_date":"2025-01-15T00:00:00Z","end_date":"2025-07-01T12:00:00-03:00"}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Duration() != 6 {
		t.Errorf("Duration = %d, want 6", s.Duration())
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"a.json", "sub/b.JSON", "notes.txt", ".hidden/c.json"} {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "a" || files[1].Name != "b" {
		t.Errorf("names = %q, %q", files[0].Name, files[1].Name)
	}

	missing, err := ScanDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: %v, %v", missing, err)
	}
}
